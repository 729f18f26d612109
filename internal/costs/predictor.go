// Package costs forecasts the final cost of a construction project from its
// current spend, recent burn rate and the track record of similar projects.
package costs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buildops/internal/models"
)

// Store loads the financial records the predictor reads.
type Store interface {
	// LoadProjectForCost returns the project with cost entries, change
	// orders, material usage and time entries loaded.
	LoadProjectForCost(ctx context.Context, projectID uint) (*models.Project, error)
	// CompletedProjects returns completed projects of the given type,
	// excluding excludeID.
	CompletedProjects(ctx context.Context, projectType models.ProjectType, excludeID uint) ([]models.Project, error)
}

type Predictor struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewPredictor(store Store, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (p *Predictor) WithClock(now func() time.Time) *Predictor {
	p.now = now
	return p
}

// Predict recomputes the forecast on every call; nothing is stored.
func (p *Predictor) Predict(ctx context.Context, projectID uint) (*Prediction, error) {
	pred, err := p.predict(ctx, projectID)
	if err != nil {
		p.logger.Error("cost prediction failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("cost prediction failed: %w", err)
	}
	return pred, nil
}

func (p *Predictor) predict(ctx context.Context, projectID uint) (*Prediction, error) {
	project, err := p.store.LoadProjectForCost(ctx, projectID)
	if err != nil {
		return nil, err
	}

	history, err := p.store.CompletedProjects(ctx, project.Type, project.ID)
	if err != nil {
		return nil, fmt.Errorf("load historical projects: %w", err)
	}

	pred := Compute(Inputs{
		Budget:         project.Budget,
		CompletionPct:  project.CompletionPercentage,
		EndDate:        project.EndDate,
		CostEntries:    project.CostEntries,
		ChangeOrders:   project.ChangeOrders,
		MaterialUsages: project.MaterialUsages,
		TimeEntries:    project.TimeEntries,
		Historical:     history,
	}, p.now())
	pred.ProjectID = project.ID

	p.logger.Debug("cost predicted",
		"project_id", project.ID,
		"predicted", pred.PredictedFinalCost,
		"variance_pct", pred.VariancePct,
		"history_size", len(history),
	)
	return &pred, nil
}
