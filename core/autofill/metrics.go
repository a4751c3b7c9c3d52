package autofill

import "github.com/prometheus/client_golang/prometheus"

var (
	fillDuration *prometheus.HistogramVec
	periodsTotal *prometheus.CounterVec
)

func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autofill_duration_seconds",
			Help:    "Duration of grade auto-fill runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	periods := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autofill_periods_total",
			Help: "Periods handled by auto-fill, by outcome",
		},
		[]string{"grade", "outcome"},
	)
	return dur, periods
}

func init() {
	fillDuration, periodsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers auto-fill metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(fillDuration, periodsTotal)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	fillDuration, periodsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
