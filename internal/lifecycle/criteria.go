package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/equipsense/equipsense/internal/artifact"
	"github.com/equipsense/equipsense/internal/dataset"
)

// Criteria is the outcome of the retraining decision. Reasons accumulate
// across all three checks so the log always explains every contributing
// cause, not just the first one.
type Criteria struct {
	NeedsRetraining     bool
	ScheduledDue        bool
	SufficientNewData   bool
	PerformanceDegraded bool
	Reasons             []string

	DaysSinceTraining  int
	NewDataPoints      int64
	CurrentPerformance *float64
}

// RowCounter reports data volume in the canonical structured store.
type RowCounter interface {
	CountReadingsSince(ctx context.Context, t time.Time) (int64, error)
	CountReadings(ctx context.Context) (int64, error)
}

// CriteriaConfig holds the thresholds of the retraining decision.
type CriteriaConfig struct {
	PerformanceThreshold float64
	MinNewDataPoints     int64
	ScheduleIntervalDays int
	TrainingLogPath      string
	ArtifactPath         string
}

// CriteriaEvaluator decides whether retraining should run. It is strictly
// read-only and never fails hard: every I/O problem degrades into the
// conservative default of retraining, because retraining is always safe
// and silently serving a stale or broken model is not.
type CriteriaEvaluator struct {
	cfg      CriteriaConfig
	counter  RowCounter
	store    *artifact.Store
	resolver *dataset.Resolver
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewCriteriaEvaluator creates an evaluator. counter may be nil when no
// structured store is configured; the new-data check is then skipped.
func NewCriteriaEvaluator(cfg CriteriaConfig, counter RowCounter, store *artifact.Store, resolver *dataset.Resolver, logger *zap.SugaredLogger) *CriteriaEvaluator {
	return &CriteriaEvaluator{
		cfg:      cfg,
		counter:  counter,
		store:    store,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate runs the three retraining checks: schedule elapsed, data
// volume grown, production performance degraded.
func (e *CriteriaEvaluator) Evaluate(ctx context.Context) Criteria {
	var crit Criteria

	log, err := artifact.ReadTrainingLog(e.cfg.TrainingLogPath)
	if err != nil {
		crit.NeedsRetraining = true
		crit.Reasons = append(crit.Reasons, "no previous training record found")
	} else {
		days := int(e.now().Sub(log.LastTrainingDate).Hours() / 24)
		crit.DaysSinceTraining = days
		if days >= e.cfg.ScheduleIntervalDays {
			crit.ScheduledDue = true
			crit.Reasons = append(crit.Reasons, fmt.Sprintf("scheduled retraining (%d days since last training)", days))
		}
	}

	e.checkNewData(ctx, log, &crit)
	e.checkPerformance(ctx, &crit)

	crit.NeedsRetraining = crit.NeedsRetraining || crit.ScheduledDue || crit.SufficientNewData || crit.PerformanceDegraded
	return crit
}

func (e *CriteriaEvaluator) checkNewData(ctx context.Context, log *artifact.TrainingLog, crit *Criteria) {
	if e.counter == nil {
		return
	}

	var count int64
	var err error
	if log == nil {
		count, err = e.counter.CountReadings(ctx)
	} else {
		count, err = e.counter.CountReadingsSince(ctx, log.LastTrainingDate)
	}
	if err != nil {
		// Cause unknown; retraining is the safe default.
		e.logger.Warnw("could not count new data points", "error", err)
		crit.NeedsRetraining = true
		crit.Reasons = append(crit.Reasons, fmt.Sprintf("error counting new data (%v), retraining as a precaution", err))
		return
	}

	crit.NewDataPoints = count
	if count >= e.cfg.MinNewDataPoints {
		crit.SufficientNewData = true
		crit.Reasons = append(crit.Reasons, fmt.Sprintf("sufficient new data points (%d)", count))
	}
}

// checkPerformance scores the production artifact on a fresh export.
// A score below threshold and a failed evaluation are both treated as
// degradation (fail-open). A missing artifact is a normal startup
// condition, not degradation.
func (e *CriteriaEvaluator) checkPerformance(ctx context.Context, crit *Criteria) {
	current, err := e.store.Load(e.cfg.ArtifactPath)
	if err != nil {
		e.logger.Infow("no production artifact to evaluate", "error", err)
		return
	}

	r2, err := scoreOnFreshData(ctx, current, e.resolver)
	if err != nil {
		crit.PerformanceDegraded = true
		crit.Reasons = append(crit.Reasons, fmt.Sprintf("current model evaluation failed (%v)", err))
		return
	}

	crit.CurrentPerformance = &r2
	if r2 < e.cfg.PerformanceThreshold {
		crit.PerformanceDegraded = true
		crit.Reasons = append(crit.Reasons, fmt.Sprintf("performance degraded (R² = %.3f)", r2))
	}
}
