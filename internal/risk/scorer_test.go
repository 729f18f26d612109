package risk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"buildops/internal/events"
	"buildops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	project *models.Project
	loadErr error
	saveErr error
	saved   []models.RiskAssessment
}

func (f *fakeStore) LoadProjectForRisk(_ context.Context, id uint) (*models.Project, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.project == nil || f.project.ID != id {
		return nil, models.ErrProjectNotFound
	}
	return f.project, nil
}

func (f *fakeStore) SaveRiskAssessment(_ context.Context, a *models.RiskAssessment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *a)
	return nil
}

func (f *fakeStore) ListRiskAssessments(_ context.Context, id uint, limit int) ([]models.RiskAssessment, error) {
	var out []models.RiskAssessment
	for i := len(f.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if f.saved[i].ProjectID == id {
			out = append(out, f.saved[i])
		}
	}
	return out, nil
}

type recordingPublisher struct {
	keys []string
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	r.keys = append(r.keys, key)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func overrunProject() *models.Project {
	p := &models.Project{
		Budget:               100000,
		CompletionPercentage: 80,
		Expenses:             []models.Expense{{Amount: 70000}, {Amount: 50000}},
	}
	p.ID = 12
	return p
}

func TestScorer_Analyze(t *testing.T) {
	store := &fakeStore{project: overrunProject()}
	pub := &recordingPublisher{}
	scorer := NewScorer(store, pub, nil).WithClock(func() time.Time { return now })

	a, err := scorer.Analyze(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, uint(12), a.ProjectID)
	assert.Equal(t, 100.0, a.Scores.Budget)
	assert.Equal(t, 30.0, a.Scores.Quality)
	// 100*0.30 + 30*0.10
	assert.Equal(t, 33, a.Overall)
	assert.Equal(t, LevelMedium, a.Level)
	assert.Equal(t, Confidence, a.Confidence)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, now, a.AssessedAt)

	require.Len(t, store.saved, 1)
	row := store.saved[0]
	assert.Equal(t, models.AnalysisTypeRisk, row.AnalysisType)
	assert.Equal(t, a.ID, row.PublicID)
	var recs []string
	require.NoError(t, json.Unmarshal(row.Recommendations, &recs))
	assert.Equal(t, a.Recommendations, recs)

	assert.Equal(t, []string{events.RoutingRiskAssessed}, pub.keys)
}

func TestScorer_Analyze_AppendsEveryCall(t *testing.T) {
	store := &fakeStore{project: overrunProject()}
	scorer := NewScorer(store, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := scorer.Analyze(context.Background(), 12)
		require.NoError(t, err)
	}
	assert.Len(t, store.saved, 3)
	assert.NotEqual(t, store.saved[0].PublicID, store.saved[1].PublicID)
}

func TestScorer_Analyze_Errors(t *testing.T) {
	scorer := NewScorer(&fakeStore{}, nil, nil)
	_, err := scorer.Analyze(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
	assert.Contains(t, err.Error(), "risk analysis failed: ")

	store := &fakeStore{project: overrunProject(), saveErr: errors.New("db down")}
	_, err = NewScorer(store, nil, nil).Analyze(context.Background(), 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestScorer_Analyze_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{project: overrunProject()}
	pub := &recordingPublisher{err: errors.New("broker gone")}

	_, err := NewScorer(store, pub, nil).Analyze(context.Background(), 12)
	require.NoError(t, err)
	assert.Len(t, store.saved, 1)
}

func TestScorer_History(t *testing.T) {
	store := &fakeStore{project: overrunProject()}
	scorer := NewScorer(store, nil, nil)

	first, err := scorer.Analyze(context.Background(), 12)
	require.NoError(t, err)
	second, err := scorer.Analyze(context.Background(), 12)
	require.NoError(t, err)

	history, err := scorer.History(context.Background(), 12, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, first.Recommendations, history[1].Recommendations)
	assert.Equal(t, first.Scores, history[1].Scores)
}
