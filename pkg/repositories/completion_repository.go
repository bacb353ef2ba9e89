package repositories

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const completionsTable = "drug_records"

var completionStruct = database.NewStruct(new(models.CompletionRecord))

// CompletionRepository handles database operations for dose completion records
type CompletionRepository struct {
	*Repository
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db database.DB, logger ectologger.Logger) *CompletionRepository {
	return &CompletionRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create logs a dose completion
func (r *CompletionRepository) Create(ctx context.Context, record *models.CompletionRecord) error {
	ctx, span := tracing.StartSpan(ctx, "CompletionRepository.Create")
	defer span.End()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.TakenAt.IsZero() {
		record.TakenAt = time.Now().UTC()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(completionsTable).
		Cols("id", "user_id", "plan_item_id", "expected_date", "expected_time", "taken_at", "completed", "created_at").
		Values(record.ID, record.UserID, record.PlanItemID, record.ExpectedDate, record.ExpectedTime,
			record.TakenAt, record.Completed, sqlbuilder.Raw("NOW()")).
		Returning("created_at")

	query, args := ib.Build()
	if err := r.DB().QueryRowContext(ctx, query, args...).Scan(&record.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": record.UserID,
		}).Error("failed to create completion record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create completion record")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"record_id": record.ID,
	}).Debugf("Created %s", completionsTable)
	return nil
}

// ListRecent returns the given users' completion records created at or after
// since.
func (r *CompletionRepository) ListRecent(ctx context.Context, userIDs []uuid.UUID, since time.Time) ([]models.CompletionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "CompletionRepository.ListRecent")
	defer span.End()

	if len(userIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, user_id, plan_item_id, expected_date, expected_time, taken_at, completed, created_at
		FROM drug_records
		WHERE user_id = ANY($1) AND created_at >= $2
		ORDER BY created_at`

	var records []models.CompletionRecord
	if err := r.DB().SelectContext(ctx, &records, query, pq.Array(ids), since); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list completion records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list completion records")
	}
	return records, nil
}

// ListForUser returns a user's completion records created at or after since
func (r *CompletionRepository) ListForUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.CompletionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "CompletionRepository.ListForUser")
	defer span.End()

	sb := completionStruct.SelectFrom(completionsTable)
	sb.Where(sb.Equal("user_id", userID), sb.GreaterEqualThan("created_at", since))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var records []models.CompletionRecord
	if err := r.DB().SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to list completion records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list completion records")
	}
	return records, nil
}
