package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const (
	plansTable     = "plans"
	planItemsTable = "plan_items"
	planRulesTable = "plan_item_rules"
)

var (
	planStruct     = database.NewStruct(new(models.Plan))
	planItemStruct = database.NewStruct(new(models.PlanItem))
)

var validate = validator.New()

// PlanRepository handles database operations for treatment plans
type PlanRepository struct {
	*Repository
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db database.DB, logger ectologger.Logger) *PlanRepository {
	return &PlanRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a plan along with its items and their recurrence rules in a
// single transaction.
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.Create")
	defer span.End()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	for i := range plan.Items {
		if plan.Items[i].Rule != nil {
			if err := validate.Struct(plan.Items[i].Rule); err != nil {
				return BadRequest("invalid recurrence rule: " + err.Error())
			}
		}
	}

	ctx, tx, err := database.GetTx(ctx, r.logger, r.DB(), nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create plan")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ib := database.NewInsertBuilder()
	ib.InsertInto(plansTable).
		Cols("id", "patient_id", "doctor_id", "patient_name", "doctor_name", "name", "active", "created_at", "updated_at").
		Values(plan.ID, plan.PatientID, plan.DoctorID, plan.PatientName, plan.DoctorName, plan.Name, plan.Active,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&plan.CreatedAt, &plan.UpdatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_id": plan.ID,
		}).Error("failed to create plan")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create plan")
	}

	for i := range plan.Items {
		item := &plan.Items[i]
		item.PlanID = plan.ID
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if err = r.insertItem(ctx, tx, item); err != nil {
			return err
		}
		if item.Rule != nil {
			item.Rule.PlanItemID = item.ID
			if err = r.insertRule(ctx, tx, item.Rule); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create plan")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"plan_id":    plan.ID,
		"item_count": len(plan.Items),
	}).Debugf("Created %s", plansTable)
	return nil
}

func (r *PlanRepository) insertItem(ctx context.Context, tx database.Tx, item *models.PlanItem) error {
	ib := database.NewInsertBuilder()
	ib.InsertInto(planItemsTable).
		Cols("id", "plan_id", "drug_id", "dosage", "unit", "amount_literal", "note", "created_at", "updated_at").
		Values(item.ID, item.PlanID, item.DrugID, item.Dosage, item.Unit, item.AmountLiteral, item.Note,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_item_id": item.ID,
		}).Error("failed to create plan item")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create plan item")
	}
	return nil
}

func (r *PlanRepository) insertRule(ctx context.Context, tx database.Tx, rule *models.RecurrenceRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(planRulesTable).
		Cols("id", "plan_item_id", "start_date", "end_date", "repeat_type", "interval_value",
			"mon", "tue", "wed", "thu", "fri", "sat", "sun", "times").
		Values(rule.ID, rule.PlanItemID, rule.StartDate, rule.EndDate, rule.RepeatType, rule.IntervalValue,
			rule.Mon, rule.Tue, rule.Wed, rule.Thu, rule.Fri, rule.Sat, rule.Sun, rule.Times)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_item_id": rule.PlanItemID,
		}).Error("failed to create recurrence rule")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create recurrence rule")
	}
	return nil
}

// GetByID retrieves a plan by ID with its items
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.GetByID")
	defer span.End()

	sb := planStruct.SelectFrom(plansTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var plan models.Plan
	err := r.DB().GetContext(ctx, &plan, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("plan %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_id": id,
		}).Error("failed to get plan")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get plan")
	}

	if plan.Items, err = r.listItems(ctx, plan.ID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActivePlan retrieves the patient's active plan with items, or nil when
// the patient has none.
func (r *PlanRepository) GetActivePlan(ctx context.Context, patientID uuid.UUID) (*models.Plan, error) {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.GetActivePlan")
	defer span.End()

	sb := planStruct.SelectFrom(plansTable)
	sb.Where(sb.Equal("patient_id", patientID), sb.Equal("active", true))
	sb.OrderBy("created_at DESC").Limit(1)

	query, args := sb.Build()
	var plan models.Plan
	err := r.DB().GetContext(ctx, &plan, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"patient_id": patientID,
		}).Error("failed to get active plan")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get active plan")
	}

	if plan.Items, err = r.listItems(ctx, plan.ID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetRawPlan retrieves the patient's active plan with every item carrying its
// first recurrence rule, without any expansion.
func (r *PlanRepository) GetRawPlan(ctx context.Context, patientID uuid.UUID) (*models.Plan, error) {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.GetRawPlan")
	defer span.End()

	plan, err := r.GetActivePlan(ctx, patientID)
	if err != nil || plan == nil {
		return plan, err
	}

	rulesByItem, err := r.ListPlanRules(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	for i := range plan.Items {
		if rules := rulesByItem[plan.Items[i].ID]; len(rules) > 0 {
			rule := rules[0]
			plan.Items[i].Rule = &rule
		}
	}
	return plan, nil
}

func (r *PlanRepository) listItems(ctx context.Context, planID uuid.UUID) ([]models.PlanItem, error) {
	sb := planItemStruct.SelectFrom(planItemsTable)
	sb.Where(sb.Equal("plan_id", planID))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var items []models.PlanItem
	if err := r.DB().SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_id": planID,
		}).Error("failed to list plan items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list plan items")
	}
	return items, nil
}

// ListActivePatientIDs returns the distinct patients with an active plan
func (r *PlanRepository) ListActivePatientIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.ListActivePatientIDs")
	defer span.End()

	var ids []uuid.UUID
	query := `SELECT DISTINCT patient_id FROM plans WHERE active = true`
	if err := r.DB().SelectContext(ctx, &ids, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list active patients")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list active patients")
	}
	return ids, nil
}

// ListPlanRules returns every recurrence rule for the plan's items, keyed by
// item ID.
func (r *PlanRepository) ListPlanRules(ctx context.Context, planID uuid.UUID) (map[uuid.UUID][]models.RecurrenceRule, error) {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.ListPlanRules")
	defer span.End()

	query := `
		SELECT r.id, r.plan_item_id, r.start_date, r.end_date, r.repeat_type, r.interval_value,
		       r.mon, r.tue, r.wed, r.thu, r.fri, r.sat, r.sun, r.times
		FROM plan_item_rules r
		JOIN plan_items i ON i.id = r.plan_item_id
		WHERE i.plan_id = $1
		ORDER BY r.start_date, r.id`

	var rules []models.RecurrenceRule
	if err := r.DB().SelectContext(ctx, &rules, query, planID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_id": planID,
		}).Error("failed to list plan rules")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list plan rules")
	}

	byItem := make(map[uuid.UUID][]models.RecurrenceRule, len(rules))
	for _, rule := range rules {
		byItem[rule.PlanItemID] = append(byItem[rule.PlanItemID], rule)
	}
	return byItem, nil
}

// ReplaceItemRules replaces the item's rule set atomically. Rules are never
// patched in place; updates delete the old set and insert the new one.
func (r *PlanRepository) ReplaceItemRules(ctx context.Context, planItemID uuid.UUID, rules []models.RecurrenceRule) error {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.ReplaceItemRules")
	defer span.End()

	for i := range rules {
		if err := validate.Struct(&rules[i]); err != nil {
			return BadRequest("invalid recurrence rule: " + err.Error())
		}
	}

	ctx, tx, err := database.GetTx(ctx, r.logger, r.DB(), nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace rules")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(planRulesTable)
	sb.Where(sb.Equal("plan_item_id", planItemID))

	query, args := sb.Build()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_item_id": planItemID,
		}).Error("failed to delete old rules")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace rules")
	}

	for i := range rules {
		rules[i].PlanItemID = planItemID
		if err = r.insertRule(ctx, tx, &rules[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace rules")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"plan_item_id": planItemID,
		"rule_count":   len(rules),
	}).Debugf("Replaced rules in %s", planRulesTable)
	return nil
}

// SetActive toggles a plan's active flag
func (r *PlanRepository) SetActive(ctx context.Context, planID uuid.UUID, active bool) error {
	ctx, span := tracing.StartSpan(ctx, "PlanRepository.SetActive")
	defer span.End()

	query := `UPDATE plans SET active = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.DB().ExecContext(ctx, query, active, planID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"plan_id": planID,
		}).Error("failed to update plan")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update plan")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return NotFound("plan %s does not exist", planID)
	}
	return nil
}
