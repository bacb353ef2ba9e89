package repositories_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "yarrow"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// assertNotFound asserts that err is an HTTP 404 error
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err), "expected 404, got: %d", httperror.GetStatusCode(err))
}

func seedUser(t *testing.T, db database.DB, role string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, $4)`,
		id, "test-"+id.String()[:8], id.String()[:8]+"@example.com", role)
	require.NoError(t, err)
	return id
}

func seedDrug(t *testing.T, db database.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO drugs (id, product_ndc, brand_name, generic_name, dosage_form, route)
		 VALUES ($1, $2, 'Prinivil', 'lisinopril', 'TABLET', 'ORAL')`,
		id, id.String()[:13])
	require.NoError(t, err)
	return id
}

func testPlan(patientID, doctorID, drugID uuid.UUID) *models.Plan {
	dosage := 10.0
	unit := "mg"
	return &models.Plan{
		PatientID:   patientID,
		DoctorID:    doctorID,
		PatientName: "Test Patient",
		DoctorName:  "Test Doctor",
		Name:        "Hypertension",
		Active:      true,
		Items: []models.PlanItem{
			{
				DrugID: drugID,
				Dosage: &dosage,
				Unit:   &unit,
				Rule: &models.RecurrenceRule{
					StartDate:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
					RepeatType: models.RepeatDaily,
					Times:      pq.StringArray{"09:00", "21:00"},
				},
			},
		},
	}
}

func TestPlanRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := repositories.NewPlanRepository(db, getTestLogger())
	ctx := context.Background()

	patientID := seedUser(t, db, "patient")
	doctorID := seedUser(t, db, "doctor")
	drugID := seedDrug(t, db)

	plan := testPlan(patientID, doctorID, drugID)
	require.NoError(t, repo.Create(ctx, plan))
	assert.NotEqual(t, uuid.Nil, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.Name, got.Name)
		require.Len(t, got.Items, 1)
		assert.Equal(t, drugID, got.Items[0].DrugID)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assertNotFound(t, err)
	})

	t.Run("GetActivePlan", func(t *testing.T) {
		got, err := repo.GetActivePlan(ctx, patientID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, plan.ID, got.ID)
	})

	t.Run("GetActivePlan none", func(t *testing.T) {
		got, err := repo.GetActivePlan(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetRawPlan binds first rule", func(t *testing.T) {
		got, err := repo.GetRawPlan(ctx, patientID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Items, 1)
		require.NotNil(t, got.Items[0].Rule)
		assert.Equal(t, models.RepeatDaily, got.Items[0].Rule.RepeatType)
		assert.Equal(t, pq.StringArray{"09:00", "21:00"}, got.Items[0].Rule.Times)
	})

	t.Run("ListActivePatientIDs", func(t *testing.T) {
		ids, err := repo.ListActivePatientIDs(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, patientID)
	})

	t.Run("ListPlanRules", func(t *testing.T) {
		rules, err := repo.ListPlanRules(ctx, plan.ID)
		require.NoError(t, err)
		require.Len(t, rules[plan.Items[0].ID], 1)
	})

	t.Run("ReplaceItemRules", func(t *testing.T) {
		itemID := plan.Items[0].ID
		newRules := []models.RecurrenceRule{
			{
				StartDate:  time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
				RepeatType: models.RepeatWeekly,
				Mon:        true,
				Thu:        true,
				Times:      pq.StringArray{"08:00"},
			},
		}
		require.NoError(t, repo.ReplaceItemRules(ctx, itemID, newRules))

		rules, err := repo.ListPlanRules(ctx, plan.ID)
		require.NoError(t, err)
		require.Len(t, rules[itemID], 1)
		assert.Equal(t, models.RepeatWeekly, rules[itemID][0].RepeatType)
	})

	t.Run("ReplaceItemRules rejects invalid", func(t *testing.T) {
		bad := []models.RecurrenceRule{
			{
				StartDate:  time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
				RepeatType: "HOURLY",
			},
		}
		err := repo.ReplaceItemRules(ctx, plan.Items[0].ID, bad)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("SetActive", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, plan.ID, false))

		got, err := repo.GetActivePlan(ctx, patientID)
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, repo.SetActive(ctx, plan.ID, true))
	})

	t.Run("SetActive not found", func(t *testing.T) {
		assertNotFound(t, repo.SetActive(ctx, uuid.New(), false))
	})
}
