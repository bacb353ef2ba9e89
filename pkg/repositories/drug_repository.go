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

const drugsTable = "drugs"

var drugStruct = database.NewStruct(new(models.Drug))

// DrugRepository handles database operations for the drug catalog
type DrugRepository struct {
	*Repository
}

// NewDrugRepository creates a new drug repository
func NewDrugRepository(db database.DB, logger ectologger.Logger) *DrugRepository {
	return &DrugRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a drug by ID
func (r *DrugRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Drug, error) {
	ctx, span := tracing.StartSpan(ctx, "DrugRepository.GetByID")
	defer span.End()

	sb := drugStruct.SelectFrom(drugsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var drug models.Drug
	err := r.DB().GetContext(ctx, &drug, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("drug %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"drug_id": id,
		}).Error("failed to get drug")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get drug")
	}
	return &drug, nil
}

// GetNamesByIDs returns display names keyed by drug ID. The brand name wins
// when present, otherwise the generic name. Unknown IDs are absent.
func (r *DrugRepository) GetNamesByIDs(ctx context.Context, drugIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	ctx, span := tracing.StartSpan(ctx, "DrugRepository.GetNamesByIDs")
	defer span.End()

	if len(drugIDs) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	query := `
		SELECT id, COALESCE(NULLIF(brand_name, ''), generic_name) AS name
		FROM drugs
		WHERE id = ANY($1)`

	ids := make([]string, len(drugIDs))
	for i, id := range drugIDs {
		ids[i] = id.String()
	}

	var rows []struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	if err := r.DB().SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get drug names")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get drug names")
	}

	names := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
