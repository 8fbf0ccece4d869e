// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector of this process. Both binaries are
// short-lived, so the registry is pushed rather than scraped.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Prediction outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

var (
	PredictionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facility_ml_predictions_total",
			Help: "Prediction requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	PredictionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facility_ml_prediction_duration_seconds",
			Help:    "Time spent answering one prediction request",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"endpoint"},
	)

	ModelLoadFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facility_ml_model_load_failures_total",
			Help: "Artifacts that could not be loaded",
		},
		[]string{"endpoint", "artifact"},
	)

	TrainingRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facility_ml_training_runs_total",
			Help: "Training runs by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	TrainingDuration = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facility_ml_training_duration_seconds",
			Help: "Wall time of the last training run",
		},
		[]string{"model"},
	)

	TrainingRows = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facility_ml_training_rows",
			Help: "Rows used by the last training run",
		},
		[]string{"model", "split"},
	)

	ModelScore = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facility_ml_model_score",
			Help: "Evaluation metrics of the last trained model",
		},
		[]string{"model", "metric"},
	)

	LastTrainedTimestamp = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facility_ml_last_trained_timestamp_seconds",
			Help: "Unix time of the last successful training run",
		},
		[]string{"model"},
	)
)
