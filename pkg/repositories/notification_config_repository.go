package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const notificationConfigsTable = "notification_configs"

var notificationConfigStruct = database.NewStruct(new(models.NotificationConfig))

// NotificationConfigRepository handles database operations for per-user
// notification preferences
type NotificationConfigRepository struct {
	*Repository
}

// NewNotificationConfigRepository creates a new notification config repository
func NewNotificationConfigRepository(db database.DB, logger ectologger.Logger) *NotificationConfigRepository {
	return &NotificationConfigRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByUserID retrieves a user's notification config, or nil when the user
// has never saved one.
func (r *NotificationConfigRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.NotificationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationConfigRepository.GetByUserID")
	defer span.End()

	sb := notificationConfigStruct.SelectFrom(notificationConfigsTable)
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()
	var config models.NotificationConfig
	err := r.DB().GetContext(ctx, &config, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to get notification config")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get notification config")
	}
	return &config, nil
}

// GetOrDefault retrieves a user's notification config, falling back to the
// default preferences when none is saved.
func (r *NotificationConfigRepository) GetOrDefault(ctx context.Context, userID uuid.UUID) (*models.NotificationConfig, error) {
	config, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = models.DefaultNotificationConfig(userID)
	}
	return config, nil
}

// GetConfigs retrieves notification configs for the given users, keyed by
// user ID. Users without a saved config are absent from the result.
func (r *NotificationConfigRepository) GetConfigs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.NotificationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationConfigRepository.GetConfigs")
	defer span.End()

	if len(userIDs) == 0 {
		return map[uuid.UUID]models.NotificationConfig{}, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT user_id, enabled, email_enabled, notify_minutes, timezone
		FROM notification_configs
		WHERE user_id = ANY($1)`

	var configs []models.NotificationConfig
	if err := r.DB().SelectContext(ctx, &configs, query, pq.Array(ids)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get notification configs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get notification configs")
	}

	byUser := make(map[uuid.UUID]models.NotificationConfig, len(configs))
	for _, config := range configs {
		byUser[config.UserID] = config
	}
	return byUser, nil
}

// Upsert saves a user's notification config, replacing any existing one
func (r *NotificationConfigRepository) Upsert(ctx context.Context, config *models.NotificationConfig) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationConfigRepository.Upsert")
	defer span.End()

	if err := validate.Struct(config); err != nil {
		return BadRequest("invalid notification config: " + err.Error())
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(notificationConfigsTable).
		Cols("user_id", "enabled", "email_enabled", "notify_minutes", "timezone").
		Values(config.UserID, config.Enabled, config.EmailEnabled, config.NotifyMinutes, config.Timezone)
	ub := ib.OnConflict("user_id")
	ub.Set(
		ub.Assign("enabled", database.Excluded("enabled")),
		ub.Assign("email_enabled", database.Excluded("email_enabled")),
		ub.Assign("notify_minutes", database.Excluded("notify_minutes")),
		ub.Assign("timezone", database.Excluded("timezone")),
	)

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": config.UserID,
		}).Error("failed to upsert notification config")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert notification config")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": config.UserID,
	}).Debugf("Upserted %s", notificationConfigsTable)
	return nil
}
