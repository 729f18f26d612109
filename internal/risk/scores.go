package risk

import (
	"math"
	"time"

	"buildops/internal/models"
)

const (
	weightBudget   = 0.30
	weightSchedule = 0.25
	weightWeather  = 0.15
	weightResource = 0.20
	weightQuality  = 0.10

	// neutral scores when there is nothing to measure yet
	defaultBudgetRisk  = 20.0
	defaultQualityRisk = 30.0

	// Confidence is attached to every assessment.
	Confidence = 0.85
)

// Scores holds the five sub-scores, each in [0, 100].
type Scores struct {
	Budget   float64 `json:"budget_risk"`
	Schedule float64 `json:"schedule_risk"`
	Weather  float64 `json:"weather_risk"`
	Resource float64 `json:"resource_risk"`
	Quality  float64 `json:"quality_risk"`
}

// Level buckets the overall score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

func LevelFor(overall int) Level {
	switch {
	case overall < 30:
		return LevelLow
	case overall < 60:
		return LevelMedium
	case overall < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// BudgetRisk compares the share of budget spent with the share of work done.
// Every point of spend ahead of progress costs two points of risk on top of a
// baseline of 20. A project with no progress (or no budget) scores 20.
func BudgetRisk(budget, spent, completionPct float64) float64 {
	if completionPct <= 0 || budget <= 0 {
		return defaultBudgetRisk
	}
	spentPct := spent / budget * 100
	return clamp((spentPct-completionPct)*2 + defaultBudgetRisk)
}

// ScheduleRisk is the overdue share of tasks scaled by 150.
func ScheduleRisk(tasks []models.Task, now time.Time) float64 {
	if len(tasks) == 0 {
		return 0
	}
	overdue := 0
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue++
		}
	}
	return clamp(float64(overdue) / float64(len(tasks)) * 150)
}

// WeatherRisk is the share of reported days with adverse weather scaled by 200.
func WeatherRisk(reports []models.DailyReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	adverse := 0
	for _, r := range reports {
		if r.HasAdverseWeather() {
			adverse++
		}
	}
	return clamp(float64(adverse) / float64(len(reports)) * 200)
}

// ResourceRisk counts resource-driven change orders, 10 points each.
func ResourceRisk(orders []models.ChangeOrder) float64 {
	n := 0
	for _, co := range orders {
		if co.IsResourceRelated() {
			n++
		}
	}
	return clamp(float64(n) * 10)
}

// QualityRisk is the gap to a perfect mean inspection score plus 5 points per
// recorded defect.
func QualityRisk(inspections []models.QualityInspection) float64 {
	if len(inspections) == 0 {
		return defaultQualityRisk
	}
	var sum float64
	defects := 0
	for _, in := range inspections {
		sum += in.Score
		defects += in.DefectCount
	}
	mean := sum / float64(len(inspections))
	return clamp((100 - mean) + 5*float64(defects))
}

// OverallScore is the weighted sum of the sub-scores, rounded.
func OverallScore(s Scores) int {
	total := s.Budget*weightBudget +
		s.Schedule*weightSchedule +
		s.Weather*weightWeather +
		s.Resource*weightResource +
		s.Quality*weightQuality
	return int(math.Round(clamp(total)))
}

// Recommendations picks the fixed advice for every sub-score over its threshold.
func Recommendations(s Scores) []string {
	var recs []string
	if s.Budget > 60 {
		recs = append(recs,
			"Review budget allocation and identify cost-saving opportunities",
			"Consider value engineering for the remaining scope",
		)
	}
	if s.Schedule > 60 {
		recs = append(recs,
			"Reassign crews to critical-path tasks",
			"Review task dependencies and resequence overdue work",
		)
	}
	if s.Weather > 50 {
		recs = append(recs,
			"Plan indoor work alternatives for adverse weather days",
			"Add weather contingency to the remaining schedule",
		)
	}
	if s.Resource > 50 {
		recs = append(recs,
			"Secure additional labor and equipment commitments",
			"Confirm material delivery dates with suppliers",
		)
	}
	if s.Quality > 60 {
		recs = append(recs,
			"Increase inspection frequency",
			"Schedule a corrective-action review with subcontractors",
		)
	}
	if len(recs) == 0 {
		recs = append(recs, "Project is on track; continue regular monitoring")
	}
	return recs
}

// ScoreProject computes all sub-scores for a project with its collections loaded.
func ScoreProject(p *models.Project, now time.Time) Scores {
	var spent float64
	for _, e := range p.Expenses {
		spent += e.Amount
	}
	return Scores{
		Budget:   BudgetRisk(p.Budget, spent, p.CompletionPercentage),
		Schedule: ScheduleRisk(p.Tasks, now),
		Weather:  WeatherRisk(p.DailyReports),
		Resource: ResourceRisk(p.ChangeOrders),
		Quality:  QualityRisk(p.Inspections),
	}
}
