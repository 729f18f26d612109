// Package weather fetches site forecasts, checks weather-sensitive tasks
// against per-activity thresholds and moves tasks to the next workable day.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"buildops/internal/events"
	"buildops/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrNoCoordinates = errors.New("project has no coordinates")
	ErrNotForward    = errors.New("new date must be after the current date")
	ErrUnscheduled   = errors.New("task has no start date")
)

// Store is the persistence the rescheduler needs.
type Store interface {
	// LoadProjectWithTasks returns the project with its tasks loaded.
	LoadProjectWithTasks(ctx context.Context, projectID uint) (*models.Project, error)
	ListActivities(ctx context.Context) ([]models.WeatherSensitiveActivity, error)
	GetTask(ctx context.Context, projectID, taskID uint) (*models.Task, error)
	// ApplyAdjustment moves the task to newStart (shifting its due date by
	// the same amount) and records adj.
	ApplyAdjustment(ctx context.Context, task *models.Task, newStart time.Time, adj *models.WeatherScheduleAdjustment) error
}

// Proposal is a suggested or applied move of one task.
type Proposal struct {
	TaskID        uint        `json:"task_id"`
	TaskTitle     string      `json:"task_title"`
	ActivityType  string      `json:"activity_type"`
	OriginalDate  time.Time   `json:"original_date"`
	SuggestedDate time.Time   `json:"suggested_date"`
	Reason        string      `json:"reason"`
	ImpactScore   int         `json:"impact_score"`
	Violations    []Violation `json:"violations"`
	AutoApply     bool        `json:"auto_apply"`
	Applied       bool        `json:"applied"`
	AdjustmentID  string      `json:"adjustment_id,omitempty"`
}

// DayOutlook is a forecast day with its classification.
type DayOutlook struct {
	DailyForecast
	Class        DayClass `json:"classification"`
	FlaggedTasks int      `json:"flagged_tasks"`
}

// Analysis is the outcome of one rescheduling pass.
type Analysis struct {
	ProjectID   uint         `json:"project_id"`
	Days        []DayOutlook `json:"days"`
	Proposals   []Proposal   `json:"adjustments"`
	AutoApplied int          `json:"auto_applied"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ApplyRequest is a manual approval of a suggested move.
type ApplyRequest struct {
	TaskID      uint      `json:"task_id"`
	NewDate     time.Time `json:"new_date"`
	Reason      string    `json:"reason"`
	ImpactScore int       `json:"impact_score"`
}

type Rescheduler struct {
	store     Store
	provider  Provider
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewRescheduler(store Store, provider Provider, publisher events.Publisher, logger *slog.Logger) *Rescheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher(logger)
	}
	return &Rescheduler{
		store:     store,
		provider:  provider,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (r *Rescheduler) WithClock(now func() time.Time) *Rescheduler {
	r.now = now
	return r
}

// Analyze checks every open weather-sensitive task inside the forecast
// window. Proposals with impact >= 8 are applied immediately; the rest are
// returned for manual approval. Concurrent calls are not coordinated.
func (r *Rescheduler) Analyze(ctx context.Context, projectID uint) (*Analysis, error) {
	a, err := r.analyze(ctx, projectID)
	if err != nil {
		r.logger.Error("weather analysis failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("weather analysis failed: %w", err)
	}
	return a, nil
}

func (r *Rescheduler) analyze(ctx context.Context, projectID uint) (*Analysis, error) {
	project, err := r.store.LoadProjectWithTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasCoordinates() {
		return nil, ErrNoCoordinates
	}

	activities, err := r.store.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	byType := make(map[string]models.WeatherSensitiveActivity, len(activities))
	for _, a := range activities {
		byType[models.NormalizeActivityType(a.ActivityType)] = a
	}

	forecast, err := r.provider.DailyForecast(ctx, *project.Latitude, *project.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	days := index(forecast)

	result := &Analysis{ProjectID: project.ID, GeneratedAt: r.now()}
	flagged := map[string]int{}

	for i := range project.Tasks {
		task := &project.Tasks[i]
		if task.Status == models.TaskCompleted || task.StartDate == nil {
			continue
		}
		activity, ok := byType[models.NormalizeActivityType(task.ActivityType)]
		if !ok {
			continue
		}
		day, ok := days[DateKey(*task.StartDate)]
		if !ok {
			continue
		}

		violations := Evaluate(day, activity)
		if len(violations) == 0 {
			continue
		}
		flagged[day.Date]++

		impact := ImpactScore(violations)
		p := Proposal{
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActivityType:  task.ActivityType,
			OriginalDate:  *task.StartDate,
			SuggestedDate: FindNextSuitableDate(*task.StartDate, activity, forecast),
			Reason:        Reason(day, task.ActivityType, violations),
			ImpactScore:   impact,
			Violations:    violations,
			AutoApply:     impact >= AutoApplyImpact,
		}

		if p.AutoApply {
			adj, err := r.apply(ctx, project.ID, task, p.SuggestedDate, p.Reason, impact, violations, 0, true)
			if err != nil {
				return nil, err
			}
			p.Applied = true
			p.AdjustmentID = adj.PublicID
			result.AutoApplied++
		}
		result.Proposals = append(result.Proposals, p)
	}

	for _, d := range forecast {
		result.Days = append(result.Days, DayOutlook{
			DailyForecast: d,
			Class:         ClassifyDay(d, flagged[d.Date] > 0),
			FlaggedTasks:  flagged[d.Date],
		})
	}

	r.logger.Info("weather analysis complete",
		"project_id", project.ID,
		"proposals", len(result.Proposals),
		"auto_applied", result.AutoApplied,
	)
	return result, nil
}

// Apply moves a task on manual approval and records the adjustment.
func (r *Rescheduler) Apply(ctx context.Context, projectID uint, req ApplyRequest, userID uint) (*models.WeatherScheduleAdjustment, error) {
	adj, err := r.applyManual(ctx, projectID, req, userID)
	if err != nil {
		r.logger.Error("schedule adjustment failed", "project_id", projectID, "task_id", req.TaskID, "error", err)
		return nil, fmt.Errorf("schedule adjustment failed: %w", err)
	}
	return adj, nil
}

func (r *Rescheduler) applyManual(ctx context.Context, projectID uint, req ApplyRequest, userID uint) (*models.WeatherScheduleAdjustment, error) {
	task, err := r.store.GetTask(ctx, projectID, req.TaskID)
	if err != nil {
		return nil, err
	}
	if task.StartDate == nil {
		return nil, ErrUnscheduled
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual weather reschedule"
	}
	return r.apply(ctx, projectID, task, req.NewDate, reason, req.ImpactScore, nil, userID, false)
}

type adjustedEvent struct {
	AdjustmentID string    `json:"adjustment_id"`
	ProjectID    uint      `json:"project_id"`
	TaskID       uint      `json:"task_id"`
	OriginalDate time.Time `json:"original_date"`
	NewDate      time.Time `json:"new_date"`
	ImpactScore  int       `json:"impact_score"`
	AutoApplied  bool      `json:"auto_applied"`
}

func (r *Rescheduler) apply(
	ctx context.Context,
	projectID uint,
	task *models.Task,
	newDate time.Time,
	reason string,
	impact int,
	violations []Violation,
	userID uint,
	auto bool,
) (*models.WeatherScheduleAdjustment, error) {
	original := *task.StartDate
	if !newDate.After(original) {
		return nil, ErrNotForward
	}

	if violations == nil {
		violations = []Violation{}
	}
	raw, err := json.Marshal(violations)
	if err != nil {
		return nil, fmt.Errorf("encode violations: %w", err)
	}

	adj := &models.WeatherScheduleAdjustment{
		PublicID:     uuid.NewString(),
		ProjectID:    projectID,
		TaskID:       task.ID,
		OriginalDate: original,
		NewDate:      newDate,
		Reason:       reason,
		ImpactScore:  impact,
		AutoApplied:  auto,
		Violations:   datatypes.JSON(raw),
		AppliedBy:    userID,
	}
	if err := r.store.ApplyAdjustment(ctx, task, newDate, adj); err != nil {
		return nil, fmt.Errorf("apply adjustment to task %d: %w", task.ID, err)
	}

	r.logger.Info("task rescheduled",
		"project_id", projectID,
		"task_id", task.ID,
		"from", DateKey(original),
		"to", DateKey(newDate),
		"impact", impact,
		"auto", auto,
	)

	ev := adjustedEvent{
		AdjustmentID: adj.PublicID,
		ProjectID:    projectID,
		TaskID:       task.ID,
		OriginalDate: original,
		NewDate:      newDate,
		ImpactScore:  impact,
		AutoApplied:  auto,
	}
	if err := events.PublishJSON(ctx, r.publisher, events.RoutingScheduleAdjusted, ev); err != nil {
		r.logger.Warn("schedule event not published", "task_id", task.ID, "error", err)
	}
	return adj, nil
}
