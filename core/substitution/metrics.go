package substitution

import "github.com/prometheus/client_golang/prometheus"

var substitutionsTotal *prometheus.CounterVec

func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "substitutions_total",
			Help: "Substitution records handled, by outcome",
		},
		[]string{"outcome"},
	)
}

func init() {
	substitutionsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers substitution metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(substitutionsTotal)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	substitutionsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
