// Package risk scores construction projects across budget, schedule,
// weather, resource and quality dimensions and keeps an append-only history
// of the results.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"buildops/internal/events"
	"buildops/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Store loads project data and persists assessment history.
type Store interface {
	// LoadProjectForRisk returns the project with tasks, expenses, change
	// orders, inspections and daily reports loaded.
	LoadProjectForRisk(ctx context.Context, projectID uint) (*models.Project, error)
	SaveRiskAssessment(ctx context.Context, a *models.RiskAssessment) error
	ListRiskAssessments(ctx context.Context, projectID uint, limit int) ([]models.RiskAssessment, error)
}

// Assessment is the result of one risk analysis.
type Assessment struct {
	ID              string    `json:"id"`
	ProjectID       uint      `json:"project_id"`
	Scores          Scores    `json:"scores"`
	Overall         int       `json:"overall_score"`
	Level           Level     `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
	AssessedAt      time.Time `json:"assessed_at"`
}

// Scorer runs risk analyses.
type Scorer struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewScorer creates a scorer. A nil publisher disables events.
func NewScorer(store Store, publisher events.Publisher, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher(logger)
	}
	return &Scorer{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Analyze scores the project and appends the result to its history.
// Every call writes a new history row.
func (s *Scorer) Analyze(ctx context.Context, projectID uint) (*Assessment, error) {
	a, err := s.analyze(ctx, projectID)
	if err != nil {
		s.logger.Error("risk analysis failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("risk analysis failed: %w", err)
	}
	return a, nil
}

func (s *Scorer) analyze(ctx context.Context, projectID uint) (*Assessment, error) {
	project, err := s.store.LoadProjectForRisk(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scores := ScoreProject(project, now)
	overall := OverallScore(scores)

	a := &Assessment{
		ID:              uuid.NewString(),
		ProjectID:       project.ID,
		Scores:          scores,
		Overall:         overall,
		Level:           LevelFor(overall),
		Recommendations: Recommendations(scores),
		Confidence:      Confidence,
		AssessedAt:      now,
	}

	row, err := toRow(a)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRiskAssessment(ctx, row); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	s.logger.Info("risk assessed",
		"project_id", a.ProjectID,
		"overall", a.Overall,
		"level", a.Level,
	)

	if err := events.PublishJSON(ctx, s.publisher, events.RoutingRiskAssessed, a); err != nil {
		s.logger.Warn("risk event not published", "project_id", a.ProjectID, "error", err)
	}

	return a, nil
}

// History returns the most recent assessments, newest first.
func (s *Scorer) History(ctx context.Context, projectID uint, limit int) ([]Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.store.ListRiskAssessments(ctx, projectID, limit)
	if err != nil {
		s.logger.Error("risk history failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("risk history failed: %w", err)
	}

	out := make([]Assessment, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func toRow(a *Assessment) (*models.RiskAssessment, error) {
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	return &models.RiskAssessment{
		CreatedAt:       a.AssessedAt,
		PublicID:        a.ID,
		ProjectID:       a.ProjectID,
		AnalysisType:    models.AnalysisTypeRisk,
		BudgetRisk:      a.Scores.Budget,
		ScheduleRisk:    a.Scores.Schedule,
		WeatherRisk:     a.Scores.Weather,
		ResourceRisk:    a.Scores.Resource,
		QualityRisk:     a.Scores.Quality,
		OverallScore:    a.Overall,
		RiskLevel:       string(a.Level),
		Recommendations: datatypes.JSON(recs),
		Confidence:      a.Confidence,
	}, nil
}

func fromRow(r models.RiskAssessment) Assessment {
	var recs []string
	// битый JSON в истории не должен ломать выдачу
	_ = json.Unmarshal(r.Recommendations, &recs)
	return Assessment{
		ID:        r.PublicID,
		ProjectID: r.ProjectID,
		Scores: Scores{
			Budget:   r.BudgetRisk,
			Schedule: r.ScheduleRisk,
			Weather:  r.WeatherRisk,
			Resource: r.ResourceRisk,
			Quality:  r.QualityRisk,
		},
		Overall:         r.OverallScore,
		Level:           Level(r.RiskLevel),
		Recommendations: recs,
		Confidence:      r.Confidence,
		AssessedAt:      r.CreatedAt,
	}
}
