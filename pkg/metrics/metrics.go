package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleCycles counts completed lifecycle cycles by terminal status
// (completed_successfully, rejected, no_data, no_trigger, failed).
var LifecycleCycles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "equipsense_lifecycle_cycles_total",
		Help: "Total number of model lifecycle cycles by terminal status",
	},
	[]string{"status"},
)

// PromotionsTotal counts candidate artifacts promoted to production.
var PromotionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "equipsense_model_promotions_total",
		Help: "Total number of model artifacts promoted to production",
	},
)

// TrainingDuration records wall-clock duration of the training phase.
var TrainingDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "equipsense_training_duration_seconds",
		Help:    "Wall-clock seconds spent training candidate models",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	},
)

// Model quality gauges, updated after each training cycle
var (
	LastTrainingR2 = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "equipsense_last_training_r2",
			Help: "Held-out R2 of the most recently trained ensemble",
		},
	)

	ProductionR2 = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "equipsense_production_model_r2",
			Help: "Most recent evaluation R2 of the production artifact",
		},
	)

	CandidateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "equipsense_candidate_training_failures_total",
			Help: "Number of candidate models that failed to train",
		},
	)
)

func init() {
	prometheus.MustRegister(LifecycleCycles, PromotionsTotal, TrainingDuration)
	prometheus.MustRegister(LastTrainingR2, ProductionR2, CandidateFailures)
}
