package risk

import (
	"math/rand"
	"testing"
	"time"

	"buildops/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func TestBudgetRisk(t *testing.T) {
	tests := []struct {
		name       string
		budget     float64
		spent      float64
		completion float64
		want       float64
	}{
		{"not started ignores spend", 100000, 500000, 0, 20},
		{"no budget", 0, 1000, 50, 20},
		{"overrun capped", 100000, 120000, 80, 100},
		{"on track", 100000, 50000, 50, 20},
		{"slightly ahead of spend", 100000, 55000, 50, 30},
		{"under spend floors at zero", 100000, 10000, 90, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BudgetRisk(tt.budget, tt.spent, tt.completion), 1e-9)
		})
	}
}

func TestScheduleRisk(t *testing.T) {
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	assert.Equal(t, 0.0, ScheduleRisk(nil, now))

	tasks := []models.Task{
		{Status: models.TaskInProgress, DueDate: &past},
		{Status: models.TaskPending, DueDate: &future},
		{Status: models.TaskCompleted, DueDate: &past},
		{Status: models.TaskPending},
	}
	// 1 of 4 overdue → 37.5
	assert.InDelta(t, 37.5, ScheduleRisk(tasks, now), 1e-9)

	allLate := []models.Task{{Status: models.TaskPending, DueDate: &past}}
	assert.Equal(t, 100.0, ScheduleRisk(allLate, now))
}

func TestWeatherRisk(t *testing.T) {
	assert.Equal(t, 0.0, WeatherRisk(nil))

	reports := []models.DailyReport{
		{WeatherConditions: "rain"},
		{WeatherConditions: "clear"},
		{WeatherConditions: "clear"},
		{WeatherConditions: "partly cloudy"},
		{WeatherConditions: "sunny"},
	}
	assert.InDelta(t, 40.0, WeatherRisk(reports), 1e-9)

	reports[1].WeatherDelay = true
	reports[2].WeatherConditions = "snow"
	assert.Equal(t, 100.0, WeatherRisk(reports))
}

func TestResourceRisk(t *testing.T) {
	orders := []models.ChangeOrder{
		{Reason: models.ReasonLabor},
		{Reason: models.ReasonMaterial},
		{Reason: models.ReasonScope},
	}
	assert.Equal(t, 20.0, ResourceRisk(orders))

	many := make([]models.ChangeOrder, 15)
	for i := range many {
		many[i].Reason = models.ReasonEquipment
	}
	assert.Equal(t, 100.0, ResourceRisk(many))
}

func TestQualityRisk(t *testing.T) {
	assert.Equal(t, 30.0, QualityRisk(nil))

	inspections := []models.QualityInspection{
		{Score: 90, DefectCount: 1},
		{Score: 80, DefectCount: 2},
	}
	// (100-85) + 5*3 = 30
	assert.InDelta(t, 30.0, QualityRisk(inspections), 1e-9)

	assert.Equal(t, 0.0, QualityRisk([]models.QualityInspection{{Score: 100}}))
	assert.Equal(t, 100.0, QualityRisk([]models.QualityInspection{{Score: 40, DefectCount: 10}}))
}

func TestOverallScore(t *testing.T) {
	s := Scores{Budget: 100, Schedule: 40, Weather: 20, Resource: 10, Quality: 30}
	// 30 + 10 + 3 + 2 + 3 = 48
	assert.Equal(t, 48, OverallScore(s))

	assert.Equal(t, 100, OverallScore(Scores{100, 100, 100, 100, 100}))
	assert.Equal(t, 0, OverallScore(Scores{}))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelLow, LevelFor(0))
	assert.Equal(t, LevelLow, LevelFor(29))
	assert.Equal(t, LevelMedium, LevelFor(30))
	assert.Equal(t, LevelHigh, LevelFor(60))
	assert.Equal(t, LevelCritical, LevelFor(80))
}

func TestRecommendations(t *testing.T) {
	assert.Equal(t, []string{"Project is on track; continue regular monitoring"}, Recommendations(Scores{}))

	recs := Recommendations(Scores{Budget: 61})
	assert.Len(t, recs, 2)
	assert.Contains(t, recs, "Consider value engineering for the remaining scope")

	all := Recommendations(Scores{Budget: 100, Schedule: 100, Weather: 100, Resource: 100, Quality: 100})
	assert.Len(t, all, 10)

	// пороги строгие
	assert.Len(t, Recommendations(Scores{Budget: 60, Schedule: 60, Weather: 50, Resource: 50, Quality: 60}), 1)
}

func TestScoreProject_AllScoresInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		p := randomProject(rng)
		s := ScoreProject(p, now)
		for _, v := range []float64{s.Budget, s.Schedule, s.Weather, s.Resource, s.Quality} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		overall := OverallScore(s)
		assert.GreaterOrEqual(t, overall, 0)
		assert.LessOrEqual(t, overall, 100)
	}
}

func TestScoreProject_NotStartedBudgetIsTwenty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		p := randomProject(rng)
		p.CompletionPercentage = 0
		assert.Equal(t, 20.0, ScoreProject(p, now).Budget)
	}
}

func randomProject(rng *rand.Rand) *models.Project {
	p := &models.Project{
		Budget:               rng.Float64() * 1e6,
		CompletionPercentage: rng.Float64() * 100,
	}
	for i := 0; i < rng.Intn(10); i++ {
		p.Expenses = append(p.Expenses, models.Expense{Amount: rng.Float64() * 5e5})
	}
	for i := 0; i < rng.Intn(20); i++ {
		due := now.AddDate(0, 0, rng.Intn(40)-20)
		p.Tasks = append(p.Tasks, models.Task{Status: models.TaskPending, DueDate: &due})
	}
	conds := []string{"clear", "rain", "snow", "cloudy"}
	for i := 0; i < rng.Intn(30); i++ {
		p.DailyReports = append(p.DailyReports, models.DailyReport{WeatherConditions: conds[rng.Intn(len(conds))]})
	}
	reasons := []models.ChangeOrderReason{models.ReasonLabor, models.ReasonScope, models.ReasonMaterial}
	for i := 0; i < rng.Intn(15); i++ {
		p.ChangeOrders = append(p.ChangeOrders, models.ChangeOrder{Reason: reasons[rng.Intn(len(reasons))]})
	}
	for i := 0; i < rng.Intn(6); i++ {
		p.Inspections = append(p.Inspections, models.QualityInspection{
			Score:       rng.Float64() * 100,
			DefectCount: rng.Intn(8),
		})
	}
	return p
}
