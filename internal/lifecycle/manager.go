package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/equipsense/equipsense/internal/artifact"
	"github.com/equipsense/equipsense/internal/config"
	"github.com/equipsense/equipsense/internal/dataset"
	"github.com/equipsense/equipsense/internal/features"
	"github.com/equipsense/equipsense/internal/lock"
	"github.com/equipsense/equipsense/internal/model"
	"github.com/equipsense/equipsense/internal/training"
	"github.com/equipsense/equipsense/pkg/metrics"
)

// State is the lifecycle phase of the current run.
type State string

const (
	StateIdle        State = "IDLE"
	StateChecking    State = "CHECKING"
	StateLoadingData State = "LOADING_DATA"
	StateTraining    State = "TRAINING"
	StateEvaluating  State = "EVALUATING"
	StatePromoted    State = "PROMOTED"
	StateRejected    State = "REJECTED"
)

// RunOptions adjusts one invocation.
type RunOptions struct {
	// Force skips the criteria check and always retrains. It still
	// honors the single-flight lock and the no-data short circuit.
	Force bool
}

// Manager orchestrates one lifecycle cycle:
//
//	IDLE → CHECKING → (no trigger) → IDLE
//	IDLE → CHECKING → LOADING_DATA → TRAINING → EVALUATING →
//	       (PROMOTED | REJECTED) → IDLE
//
// LOADING_DATA with no usable data transitions directly to IDLE as a
// no-op cycle, not a failure.
type Manager struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	resolver  *dataset.Resolver
	criteria  *CriteriaEvaluator
	trainer   *training.Trainer
	promotion *PromotionManager
	store     *artifact.Store

	state State
	now   func() time.Time
}

// NewManager wires the pipeline components. counter may be nil when the
// deployment has no structured store.
func NewManager(cfg *config.Config, logger *zap.SugaredLogger, resolver *dataset.Resolver, counter RowCounter) *Manager {
	store := artifact.NewStore(logger)
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		store:    store,
		criteria: NewCriteriaEvaluator(CriteriaConfig{
			PerformanceThreshold: cfg.PerformanceThreshold,
			MinNewDataPoints:     cfg.MinNewDataPoints,
			ScheduleIntervalDays: cfg.ScheduleIntervalDays,
			TrainingLogPath:      cfg.TrainingLogPath,
			ArtifactPath:         cfg.ArtifactPath,
		}, counter, store, resolver, logger),
		trainer: training.NewTrainer(training.Config{
			TestFraction: cfg.TestFraction,
			CVFolds:      cfg.CVFolds,
			Seed:         cfg.Seed,
		}, logger, training.DefaultCandidates()),
		promotion: NewPromotionManager(PromotionConfig{
			ArtifactPath:   cfg.ArtifactPath,
			MinImprovement: cfg.MinImprovement,
		}, store, logger),
		state: StateIdle,
		now:   time.Now,
	}
}

// State returns the current lifecycle phase.
func (m *Manager) State() State { return m.state }

// CheckCriteria evaluates the retraining criteria without training.
func (m *Manager) CheckCriteria(ctx context.Context) Criteria {
	return m.criteria.Evaluate(ctx)
}

// Run executes one full cycle and writes a report describing what
// happened, even when nothing changed. Only promotion-critical-section
// errors (and setup/cancellation errors) are returned; everything else
// degrades into a reported, non-failing outcome.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*artifact.Report, error) {
	guard, err := lock.Acquire(m.cfg.LockPath)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			return nil, fmt.Errorf("lifecycle run aborted: %w", err)
		}
		return nil, err
	}
	defer guard.Release()

	report := &artifact.Report{
		RunID:     uuid.NewString(),
		Timestamp: m.now(),
	}

	m.state = StateChecking
	defer func() { m.state = StateIdle }()

	trigger := "manual force"
	if !opts.Force {
		crit := m.criteria.Evaluate(ctx)
		report.TriggerReasons = crit.Reasons
		if crit.CurrentPerformance != nil {
			metrics.ProductionR2.Set(*crit.CurrentPerformance)
		}
		if !crit.NeedsRetraining {
			m.logger.Infow("no retraining needed", "days_since_training", crit.DaysSinceTraining, "new_data_points", crit.NewDataPoints)
			report.Status = artifact.StatusNoTrigger
			return m.finish(report)
		}
		trigger = strings.Join(crit.Reasons, "; ")
		m.logger.Infow("retraining triggered", "reasons", crit.Reasons)
	} else {
		report.TriggerReasons = []string{trigger}
	}

	m.state = StateLoadingData
	table, err := m.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrNoData) {
			m.logger.Warnw("no training data available from any source")
			report.Status = artifact.StatusNoData
			return m.finish(report)
		}
		report.Status = artifact.StatusFailed
		report.Error = err.Error()
		m.finish(report)
		return report, err
	}

	prepared, err := features.Prepare(table)
	if err != nil {
		m.logger.Warnw("training data not usable", "error", err)
		report.Status = artifact.StatusNoData
		report.Error = err.Error()
		return m.finish(report)
	}

	m.state = StateTraining
	trainStart := m.now()
	outcome, err := m.trainer.Train(ctx, prepared.X, prepared.Y)
	if err != nil {
		report.Status = artifact.StatusFailed
		report.Error = err.Error()
		m.finish(report)
		return report, err
	}
	metrics.TrainingDuration.Observe(m.now().Sub(trainStart).Seconds())
	for _, res := range outcome.Results {
		if res.Err != nil {
			metrics.CandidateFailures.Inc()
		}
	}

	weights := training.ComposeWeights(outcome.Results)
	ensemble := training.NewEnsemble(outcome.Results, weights)
	cand, ensR2, err := m.buildArtifact(outcome, weights, ensemble, prepared, trigger)
	if err != nil {
		report.Status = artifact.StatusFailed
		report.Error = err.Error()
		m.finish(report)
		return report, err
	}
	metrics.LastTrainingR2.Set(ensR2)

	m.state = StateEvaluating
	decision, currentR2, err := m.promotion.DecideAndApply(cand, table)
	if err != nil {
		// Critical-section failure: surfaced loudly, never swallowed.
		report.Status = artifact.StatusFailed
		report.Error = err.Error()
		m.finish(report)
		return report, err
	}
	if currentR2 != nil {
		metrics.ProductionR2.Set(*currentR2)
	}

	logEntry := &artifact.TrainingLog{
		LastTrainingDate: m.now(),
		Performance:      ensR2,
		SampleCount:      len(prepared.X),
		TrainingType:     "automated_retraining",
	}
	if opts.Force {
		logEntry.TrainingType = "manual_retraining"
	}
	if err := artifact.WriteTrainingLog(logEntry, m.cfg.TrainingLogPath); err != nil {
		m.logger.Errorw("could not write training log", "error", err)
	}

	report.Performance = ensR2
	report.SampleCount = len(prepared.X)
	report.FeatureCount = len(prepared.Names)
	report.TrainingInfo = &cand.TrainingInfo
	report.FeatureImportance = aggregateImportance(outcome.Results, prepared.Names)
	if decision == DecisionPromoted {
		m.state = StatePromoted
		report.Status = artifact.StatusCompleted
		metrics.PromotionsTotal.Inc()
	} else {
		m.state = StateRejected
		report.Status = artifact.StatusRejected
	}

	return m.finish(report)
}

// buildArtifact assembles the candidate artifact from the ensemble and
// scores the blend on the held-out split.
func (m *Manager) buildArtifact(outcome *training.Outcome, weights map[string]float64, ensemble *model.Ensemble, prepared *features.Prepared, trigger string) (*artifact.Artifact, float64, error) {
	preds := make([]float64, len(outcome.XTest))
	for i, x := range outcome.XTest {
		preds[i] = ensemble.Predict(x)
	}
	ensR2 := model.R2(preds, outcome.YTest)
	ensMSE := model.MSE(preds, outcome.YTest)

	var cvMean, cvStd float64
	persisted := make([]model.Persisted, 0, len(ensemble.Members))
	for _, member := range ensemble.Members {
		p, err := model.Marshal(member.Model)
		if err != nil {
			return nil, 0, err
		}
		persisted = append(persisted, p)
		for _, res := range outcome.Results {
			if res.Name == member.Name {
				cvMean += member.Weight * res.CVMean
				cvStd += member.Weight * res.CVStd
			}
		}
	}

	now := m.now()
	return &artifact.Artifact{
		SchemaVersion: artifact.SchemaVersion,
		CreatedAt:     now,
		ModelInfo: artifact.ModelInfo{
			ModelName:          "Weighted Ensemble (Retrained)",
			Models:             persisted,
			EnsembleWeights:    weights,
			FeatureNames:       prepared.Names,
			PromotionThreshold: m.cfg.PromotionThreshold,
			PerformanceMetrics: artifact.PerformanceMetrics{
				R2:     ensR2,
				MSE:    ensMSE,
				CVMean: cvMean,
				CVStd:  cvStd,
			},
		},
		TrainingInfo: artifact.TrainingInfo{
			TrainingDate:    now.Format(time.RFC3339),
			TrainingSamples: outcome.TrainSize,
			TestSamples:     outcome.TestSize,
			FeatureCount:    len(prepared.Names),
			TriggerReason:   trigger,
		},
	}, ensR2, nil
}

// finish writes the report and records cycle metrics. Report write
// failures are logged, not fatal: the cycle outcome already happened.
func (m *Manager) finish(report *artifact.Report) (*artifact.Report, error) {
	metrics.LifecycleCycles.WithLabelValues(string(report.Status)).Inc()
	if path, err := artifact.WriteReport(report, m.cfg.ReportDir); err != nil {
		m.logger.Errorw("could not write report", "error", err)
	} else {
		m.logger.Infow("cycle report written", "path", path, "status", report.Status)
	}
	return report, nil
}

// aggregateImportance averages per-feature importance over the
// candidates that expose it.
func aggregateImportance(results []training.Result, names []string) map[string]float64 {
	sums := make([]float64, len(names))
	counts := 0
	for _, res := range results {
		if res.Err != nil || len(res.Importance) != len(names) {
			continue
		}
		for j, v := range res.Importance {
			sums[j] += v
		}
		counts++
	}
	if counts == 0 {
		return nil
	}
	out := make(map[string]float64, len(names))
	for j, name := range names {
		out[name] = sums[j] / float64(counts)
	}
	return out
}
