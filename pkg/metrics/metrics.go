package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations.
	OutcomeError = "error"
)

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_forecast",
			Name:      "uploads_total",
			Help:      "Total number of dataset uploads handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_forecast",
			Name:      "predictions_total",
			Help:      "Total number of predict actions handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	trainingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sales_forecast",
			Name:      "training_seconds",
			Help:      "Model training latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		uploadsTotal,
		predictionsTotal,
		trainingDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveUpload records an upload outcome.
func ObserveUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}

// ObservePrediction records a predict-action outcome.
func ObservePrediction(outcome string) {
	predictionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTraining records a training duration.
func ObserveTraining(duration time.Duration) {
	trainingDurationSeconds.Observe(duration.Seconds())
}
