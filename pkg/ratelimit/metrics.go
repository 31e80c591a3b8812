package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "governor"
	metricsSubsystem = "ratelimit"
)

// Prometheus collectors for limiter activity. They are package-level so
// every Limiter in the process records into one set, registered once with
// the default registry.
var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "checks_total",
			Help:      "Total number of limit checks performed",
		},
		[]string{"model", "result"},
	)

	rejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rejections_total",
			Help:      "Total number of checks rejected, by violated limit",
		},
		[]string{"model", "reason"},
	)

	circuitTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "circuit_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"model"},
	)

	windowRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "window_requests",
			Help:      "Requests in the trailing 60-second window at the last check",
		},
		[]string{"model"},
	)

	windowTokenEstimate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "window_token_estimate",
			Help:      "Estimated tokens in the trailing 60-second window at the last check",
		},
		[]string{"model"},
	)

	tpmAdvisoryExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tpm_advisory_exceeded_total",
			Help:      "Times the estimated token window exceeded the advisory tpm ceiling",
		},
		[]string{"model"},
	)
)

// recordCheckAllowed records an admitted check and the resulting window sizes.
func recordCheckAllowed(model string, windowLen int, tokenEstimate int) {
	checksTotal.WithLabelValues(model, "allowed").Inc()
	windowRequests.WithLabelValues(model).Set(float64(windowLen))
	windowTokenEstimate.WithLabelValues(model).Set(float64(tokenEstimate))
}

// recordCheckRejected records a rejected check with the violated limit.
func recordCheckRejected(model string, kind Kind) {
	checksTotal.WithLabelValues(model, "rejected").Inc()
	rejectionsTotal.WithLabelValues(model, string(kind)).Inc()
}

// recordCircuitTrip records a circuit breaker opening.
func recordCircuitTrip(model string) {
	circuitTripsTotal.WithLabelValues(model).Inc()
}

// recordTPMAdvisoryExceeded records an advisory tpm overrun.
func recordTPMAdvisoryExceeded(model string) {
	tpmAdvisoryExceededTotal.WithLabelValues(model).Inc()
}
