package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Outcome   = "outcome"
	Succeeded = "succeeded"
	Failed    = "failed"
)

var (
	// IterationCount counts every exists/forall refinement
	// iteration, partitioned by outcome.
	IterationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ef_iterations_total",
			Help: "Monotonic count of exists/forall refinement iterations",
		},
		[]string{Outcome},
	)

	// SkolemCount counts the fresh skolem symbols minted across a
	// solving session.
	SkolemCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ef_skolem_symbols_total",
			Help: "Monotonic count of skolem symbols introduced during elimination",
		},
	)

	// ResolutionCount counts witness terms resolved to
	// representatives while processing counterexample models.
	ResolutionCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ef_value_resolutions_total",
			Help: "Monotonic count of model values resolved to representative terms",
		},
	)

	resolutionDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "ef_resolution_duration_seconds",
			Help:       "The duration of a model resolution attempt",
			Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{Outcome},
	)
)

func Register() {
	prometheus.MustRegister(IterationCount)
	prometheus.MustRegister(SkolemCount)
	prometheus.MustRegister(ResolutionCount)
	prometheus.MustRegister(resolutionDurationSummary)
}

// ObserveResolution records one model-resolution attempt and its
// duration in seconds.
func ObserveResolution(outcome string, seconds float64) {
	resolutionDurationSummary.WithLabelValues(outcome).Observe(seconds)
}
