package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels runs that produced a report.
	OutcomeSuccess = "success"
	// OutcomeError labels runs that failed to load, clean or aggregate.
	OutcomeError = "error"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_bookings",
			Name:      "runs_total",
			Help:      "Total number of analysis runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hotel_bookings",
			Name:      "run_seconds",
			Help:      "Analysis run latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	reservations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hotel_bookings",
			Name:      "reservations",
			Help:      "Reservations in the last run by stage (raw, clean, canceled).",
		},
		[]string{"stage"},
	)

	groupCancelRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hotel_bookings",
			Name:      "group_cancel_rate",
			Help:      "Cancellation rate per breakdown group in the last run.",
		},
		[]string{"breakdown", "group"},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		reservations,
		groupCancelRate,
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

// ObserveRun records a run duration and outcome label.
func ObserveRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	runsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// SetReservations records the row count of a pipeline stage.
func SetReservations(stage string, n int) {
	reservations.WithLabelValues(stage).Set(float64(n))
}

// SetGroupRate records one group's cancellation rate.
func SetGroupRate(breakdown, group string, rate float64) {
	groupCancelRate.WithLabelValues(breakdown, group).Set(rate)
}

// ResetGroupRates clears group rates so that groups absent from the latest run disappear.
func ResetGroupRates() {
	groupCancelRate.Reset()
}
