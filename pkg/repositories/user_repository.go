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

const usersTable = "users"

var userStruct = database.NewStruct(new(models.User))

// UserRepository handles database operations for user accounts
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DB, logger ectologger.Logger) *UserRepository {
	return &UserRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByID")
	defer span.End()

	sb := userStruct.SelectFrom(usersTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var user models.User
	err := r.DB().GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("user %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": id,
		}).Error("failed to get user")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	return &user, nil
}

// GetUsersByIDs retrieves users keyed by ID; unknown IDs are absent
func (r *UserRepository) GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetUsersByIDs")
	defer span.End()

	if len(userIDs) == 0 {
		return map[uuid.UUID]models.User{}, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	query := `SELECT id, username, email, role, created_at FROM users WHERE id = ANY($1)`

	var users []models.User
	if err := r.DB().SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get users")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get users")
	}

	byID := make(map[uuid.UUID]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}
