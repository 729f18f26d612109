package database

import (
	"context"
	"testing"
	"time"

	"buildops/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Connect(sqlite.Open(":memory:"), nil, 1, 0)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// одно соединение: у каждого :memory: своя база
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func ptrTime(t time.Time) *time.Time { return &t }

func seedProject(t *testing.T, db *gorm.DB, p models.Project) models.Project {
	t.Helper()
	company := models.Company{Name: "Northwind Builders"}
	require.NoError(t, db.Create(&company).Error)
	p.CompanyID = company.ID
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if p.Type == "" {
		p.Type = models.ProjectCommercial
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestStore_LoadProjectForRisk(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	p := seedProject(t, db, models.Project{
		Name:                 "Harbor Office",
		Budget:               500000,
		CompletionPercentage: 40,
		Tasks: []models.Task{
			{Title: "Footings", Status: models.TaskCompleted, DueDate: ptrTime(now.AddDate(0, 0, -3))},
			{Title: "Framing", Status: models.TaskInProgress, DueDate: ptrTime(now.AddDate(0, 0, 5))},
		},
		Expenses:     []models.Expense{{Amount: 120000}, {Amount: 30000}},
		ChangeOrders: []models.ChangeOrder{{Reason: models.ReasonLabor, Status: models.ChangeOrderApproved, Amount: 5000}},
		Inspections:  []models.QualityInspection{{Score: 92, Passed: true}},
		DailyReports: []models.DailyReport{{WeatherConditions: "heavy rain", WeatherDelay: true}},
	})

	got, err := store.LoadProjectForRisk(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Office", got.Name)
	assert.Len(t, got.Tasks, 2)
	assert.Len(t, got.Expenses, 2)
	assert.Len(t, got.ChangeOrders, 1)
	assert.Len(t, got.Inspections, 1)
	assert.Len(t, got.DailyReports, 1)

	_, err = store.LoadProjectForRisk(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestStore_RiskAssessmentsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		row := models.RiskAssessment{
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
			PublicID:     []string{"a", "b", "c"}[i],
			ProjectID:    7,
			OverallScore: 10 * (i + 1),
		}
		require.NoError(t, store.SaveRiskAssessment(ctx, &row))
		assert.Equal(t, models.AnalysisTypeRisk, row.AnalysisType)
	}
	require.NoError(t, store.SaveRiskAssessment(ctx, &models.RiskAssessment{PublicID: "other", ProjectID: 8}))

	rows, err := store.ListRiskAssessments(ctx, 7, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 30, rows[0].OverallScore)
	assert.Equal(t, 20, rows[1].OverallScore)

	all, err := store.ListRiskAssessments(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_LoadProjectForCostAndHistory(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	current := seedProject(t, db, models.Project{
		Name:           "Riverside Clinic",
		Budget:         200000,
		CostEntries:    []models.CostEntry{{Amount: 1000, CostType: models.CostOther}},
		MaterialUsages: []models.MaterialUsage{{Quantity: 10, UnitCost: 50}},
		TimeEntries:    []models.TimeEntry{{Hours: 8, HourlyRate: 45}},
	})
	seedProject(t, db, models.Project{Name: "Done A", Status: models.StatusCompleted, Budget: 100, ActualCost: 120})
	seedProject(t, db, models.Project{Name: "Done B", Status: models.StatusCompleted, Type: models.ProjectResidential, Budget: 100, ActualCost: 90})
	seedProject(t, db, models.Project{Name: "Still running", Budget: 100})

	got, err := store.LoadProjectForCost(ctx, current.ID)
	require.NoError(t, err)
	assert.Len(t, got.CostEntries, 1)
	assert.Len(t, got.MaterialUsages, 1)
	assert.Len(t, got.TimeEntries, 1)

	history, err := store.CompletedProjects(ctx, models.ProjectCommercial, current.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Done A", history[0].Name)
}

func TestStore_ApplyAdjustment(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	p := seedProject(t, db, models.Project{
		Name: "Depot",
		Tasks: []models.Task{{
			Title:        "Slab pour",
			ActivityType: "concrete_pour",
			Status:       models.TaskPending,
			StartDate:    ptrTime(start),
			DueDate:      ptrTime(start.AddDate(0, 0, 2)),
		}},
	})

	task, err := store.GetTask(ctx, p.ID, p.Tasks[0].ID)
	require.NoError(t, err)

	newStart := start.AddDate(0, 0, 3)
	adj := models.WeatherScheduleAdjustment{
		PublicID:     "adj-1",
		ProjectID:    p.ID,
		TaskID:       task.ID,
		OriginalDate: start,
		NewDate:      newStart,
		Reason:       "rain",
		ImpactScore:  4,
	}
	require.NoError(t, store.ApplyAdjustment(ctx, task, newStart, &adj))
	assert.NotZero(t, adj.ID)
	assert.True(t, task.DueDate.Equal(start.AddDate(0, 0, 5)))

	reloaded, err := store.GetTask(ctx, p.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.StartDate.Equal(newStart))
	assert.True(t, reloaded.DueDate.Equal(start.AddDate(0, 0, 5)))

	rows, err := store.ListAdjustments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].ImpactScore)
}

func TestStore_GetTaskWrongProject(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	p := seedProject(t, db, models.Project{Name: "A", Tasks: []models.Task{{Title: "x", Status: models.TaskPending}}})

	_, err := store.GetTask(context.Background(), p.ID+1, p.Tasks[0].ID)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestSeedActivities_Idempotent(t *testing.T) {
	db := newTestDB(t)

	defaults, err := DefaultActivities()
	require.NoError(t, err)
	require.NotEmpty(t, defaults)

	created, err := SeedActivities(db, nil)
	require.NoError(t, err)
	assert.Equal(t, len(defaults), created)

	created, err = SeedActivities(db, nil)
	require.NoError(t, err)
	assert.Zero(t, created)

	activities, err := NewStore(db).ListActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, len(defaults))

	byType := activitiesByType(activities)
	concrete := byType["concrete_pour"]
	require.NotNil(t, concrete.MinTemperature)
	assert.Equal(t, 40.0, *concrete.MinTemperature)
	assert.Nil(t, byType["crane_operation"].MinTemperature)
}

func activitiesByType(list []models.WeatherSensitiveActivity) map[string]models.WeatherSensitiveActivity {
	out := make(map[string]models.WeatherSensitiveActivity, len(list))
	for _, a := range list {
		out[a.ActivityType] = a
	}
	return out
}

func TestSeedAdmin(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedAdmin(db, "admin", "secret", nil))
	require.NoError(t, SeedAdmin(db, "admin2", "secret", nil))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Username)
	assert.NotEqual(t, "secret", admins[0].PasswordHash)

	SeedDemoUsers(db, nil)
	SeedDemoUsers(db, nil)
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestCreateAuditLog(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Username: "pm", PasswordHash: "x", Role: models.RoleManager}
	require.NoError(t, db.Create(&user).Error)

	CreateAuditLog(db, user.ID, "project", 3, "status_change", "active -> on_hold")
	CreateAuditLog(nil, user.ID, "project", 3, "ignored", "")

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "status_change", logs[0].Action)
}
