package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/equipsense/equipsense/internal/artifact"
	"github.com/equipsense/equipsense/internal/dataset"
	"github.com/equipsense/equipsense/internal/features"
	"github.com/equipsense/equipsense/internal/model"
)

// fleetTable builds a deterministic equipment export whose target is a
// linear function of age and usage, so a linear member can score near 1.
func fleetTable(n int) *dataset.Table {
	t := &dataset.Table{
		Columns: []string{"equipment_id", "age_months", "daily_usage_hours", dataset.TargetColumn},
	}
	for i := 0; i < n; i++ {
		age := float64(6 + i%120)
		usage := float64(2 + i%20)
		t.Rows = append(t.Rows, dataset.Row{
			"equipment_id":      "EQ",
			"age_months":        age,
			"daily_usage_hours": usage,
			dataset.TargetColumn: 0.004*age + 0.02*usage,
		})
	}
	return t
}

type tableProvider struct {
	name string
	rows int
}

func (p *tableProvider) Name() string { return p.name }
func (p *tableProvider) Fetch(_ context.Context) (*dataset.Table, error) {
	if p.rows == 0 {
		return &dataset.Table{}, nil
	}
	return fleetTable(p.rows), nil
}

type fixedCounter struct {
	count int64
	err   error
}

func (c *fixedCounter) CountReadingsSince(_ context.Context, _ time.Time) (int64, error) {
	return c.count, c.err
}
func (c *fixedCounter) CountReadings(_ context.Context) (int64, error) {
	return c.count, c.err
}

func testSugar(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zaptest.NewLogger(t).Sugar()
}

// trainedArtifact fits a linear member on the fleet data and wraps it the
// way a real promotion would, so criteria evaluation can score it.
func trainedArtifact(t *testing.T, r2 float64) *artifact.Artifact {
	t.Helper()

	prepared, err := features.Prepare(fleetTable(80))
	require.NoError(t, err)

	lin := model.NewLinear()
	require.NoError(t, lin.Fit(prepared.X, prepared.Y))
	p, err := model.Marshal(lin)
	require.NoError(t, err)

	return &artifact.Artifact{
		SchemaVersion: artifact.SchemaVersion,
		CreatedAt:     time.Now().UTC(),
		ModelInfo: artifact.ModelInfo{
			ModelName:          "Weighted Ensemble (Retrained)",
			Models:             []model.Persisted{p},
			EnsembleWeights:    map[string]float64{model.KindLinear: 1},
			FeatureNames:       prepared.Names,
			PromotionThreshold: 0.5,
			PerformanceMetrics: artifact.PerformanceMetrics{R2: r2},
		},
	}
}

// brokenArtifact predicts a constant regardless of input, scoring at or
// below zero on any varying target.
func brokenArtifact(t *testing.T, names []string) *artifact.Artifact {
	t.Helper()

	p, err := model.Marshal(&model.Linear{Weights: make([]float64, len(names)+1)})
	require.NoError(t, err)

	return &artifact.Artifact{
		SchemaVersion: artifact.SchemaVersion,
		CreatedAt:     time.Now().UTC(),
		ModelInfo: artifact.ModelInfo{
			Models:          []model.Persisted{p},
			EnsembleWeights: map[string]float64{model.KindLinear: 1},
			FeatureNames:    names,
		},
	}
}

func newEvaluator(t *testing.T, dir string, counter RowCounter, providers ...dataset.Provider) (*CriteriaEvaluator, *artifact.Store) {
	t.Helper()
	sugar := testSugar(t)
	store := artifact.NewStore(sugar)
	resolver := dataset.NewResolver(sugar, providers...)
	return NewCriteriaEvaluator(CriteriaConfig{
		PerformanceThreshold: 0.80,
		MinNewDataPoints:     100,
		ScheduleIntervalDays: 7,
		TrainingLogPath:      filepath.Join(dir, "model_training_log.json"),
		ArtifactPath:         filepath.Join(dir, "production_model.json"),
	}, counter, store, resolver, sugar), store
}

func writeLog(t *testing.T, dir string, age time.Duration) {
	t.Helper()
	err := artifact.WriteTrainingLog(&artifact.TrainingLog{
		LastTrainingDate: time.Now().Add(-age),
		Performance:      0.85,
		SampleCount:      80,
		TrainingType:     "automated_retraining",
	}, filepath.Join(dir, "model_training_log.json"))
	require.NoError(t, err)
}

func TestCriteriaNoLogTriggersRetraining(t *testing.T) {
	dir := t.TempDir()
	eval, _ := newEvaluator(t, dir, nil, &tableProvider{name: "db", rows: 0})

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining)
	require.NotEmpty(t, crit.Reasons)
	assert.Contains(t, crit.Reasons[0], "no previous training record")
}

func TestCriteriaFreshLogHealthyModelNoRetraining(t *testing.T) {
	dir := t.TempDir()
	eval, store := newEvaluator(t, dir, &fixedCounter{count: 10}, &tableProvider{name: "db", rows: 60})

	writeLog(t, dir, 72*time.Hour)
	require.NoError(t, store.Save(trainedArtifact(t, 0.95), filepath.Join(dir, "production_model.json")))

	crit := eval.Evaluate(context.Background())
	assert.False(t, crit.NeedsRetraining, "reasons: %v", crit.Reasons)
	assert.Equal(t, 3, crit.DaysSinceTraining)
	require.NotNil(t, crit.CurrentPerformance)
	assert.Greater(t, *crit.CurrentPerformance, 0.80)
}

func TestCriteriaScheduleElapsed(t *testing.T) {
	dir := t.TempDir()
	eval, _ := newEvaluator(t, dir, &fixedCounter{count: 0}, &tableProvider{name: "db", rows: 0})

	writeLog(t, dir, 10*24*time.Hour)

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining)
	assert.True(t, crit.ScheduledDue)
	assert.Equal(t, 10, crit.DaysSinceTraining)
}

func TestCriteriaSufficientNewData(t *testing.T) {
	dir := t.TempDir()
	eval, _ := newEvaluator(t, dir, &fixedCounter{count: 150}, &tableProvider{name: "db", rows: 0})

	writeLog(t, dir, 24*time.Hour)

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining)
	assert.True(t, crit.SufficientNewData)
	assert.False(t, crit.ScheduledDue)
	assert.Equal(t, int64(150), crit.NewDataPoints)
}

func TestCriteriaPerformanceDegraded(t *testing.T) {
	dir := t.TempDir()
	eval, store := newEvaluator(t, dir, &fixedCounter{count: 0}, &tableProvider{name: "db", rows: 60})

	writeLog(t, dir, 24*time.Hour)
	names := trainedArtifact(t, 0.95).ModelInfo.FeatureNames
	require.NoError(t, store.Save(brokenArtifact(t, names), filepath.Join(dir, "production_model.json")))

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining)
	assert.True(t, crit.PerformanceDegraded)
}

func TestCriteriaEvaluationFailureFailsOpen(t *testing.T) {
	dir := t.TempDir()
	// Artifact exists but no provider yields evaluation data.
	eval, store := newEvaluator(t, dir, &fixedCounter{count: 0}, &tableProvider{name: "db", rows: 0})

	writeLog(t, dir, 24*time.Hour)
	require.NoError(t, store.Save(trainedArtifact(t, 0.95), filepath.Join(dir, "production_model.json")))

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining, "an unevaluable production model must trigger retraining")
	assert.True(t, crit.PerformanceDegraded)
}

func TestCriteriaCountErrorRetrainsAsPrecaution(t *testing.T) {
	dir := t.TempDir()
	eval, _ := newEvaluator(t, dir, &fixedCounter{err: errors.New("database locked")}, &tableProvider{name: "db", rows: 0})

	writeLog(t, dir, 24*time.Hour)

	crit := eval.Evaluate(context.Background())
	assert.True(t, crit.NeedsRetraining)
}

func TestCriteriaMissingArtifactIsNotDegradation(t *testing.T) {
	dir := t.TempDir()
	eval, _ := newEvaluator(t, dir, &fixedCounter{count: 0}, &tableProvider{name: "db", rows: 60})

	writeLog(t, dir, 24*time.Hour)

	crit := eval.Evaluate(context.Background())
	assert.False(t, crit.NeedsRetraining, "a missing artifact with a fresh log is a normal state")
	assert.False(t, crit.PerformanceDegraded)
}
