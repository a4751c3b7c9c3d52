package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/timetable/core/metrics"
)

// PromSink records engine operations in Prometheus metrics.
type PromSink struct {
	ops         *prometheus.CounterVec
	fillRatio   *prometheus.GaugeVec
	fillSkipped *prometheus.GaugeVec
	open        prometheus.Gauge
	load        *prometheus.GaugeVec
	overCap     prometheus.Gauge
}

// NewPromSink registers timetable metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_operations_total",
			Help: "Engine operations by name, mode and outcome",
		}, []string{"operation", "mode", "failed"}),
		fillRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_fill_ratio",
			Help: "Share of requested periods placed by the last auto-fill of a grade",
		}, []string{"grade", "mode"}),
		fillSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_fill_skipped",
			Help: "Periods left unplaced by the last auto-fill of a grade",
		}, []string{"grade", "mode"}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_substitutions_open",
			Help: "Records left without a substitute by the last assignment pass",
		}),
		load: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_teacher_weekly_periods",
			Help: "Weekly periods per teacher including substitutions",
		}, []string{"teacher"}),
		overCap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_teachers_over_cap",
			Help: "Teachers whose weekly load reaches the cap",
		}),
	}
	var err error
	if s.ops, err = register(reg, s.ops); err != nil {
		return nil, err
	}
	if s.fillRatio, err = register(reg, s.fillRatio); err != nil {
		return nil, err
	}
	if s.fillSkipped, err = register(reg, s.fillSkipped); err != nil {
		return nil, err
	}
	if s.open, err = register(reg, s.open); err != nil {
		return nil, err
	}
	if s.load, err = register(reg, s.load); err != nil {
		return nil, err
	}
	if s.overCap, err = register(reg, s.overCap); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordOperation counts one engine operation.
func (s *PromSink) RecordOperation(ev coremetrics.OperationEvent) error {
	s.ops.WithLabelValues(ev.Operation, ev.Mode, strconv.FormatBool(ev.Failed)).Inc()
	return nil
}

// RecordFill stores the outcome of the last fill of a grade.
func (s *PromSink) RecordFill(ev coremetrics.FillEvent) error {
	ratio := 1.0
	if ev.Requested > 0 {
		ratio = float64(ev.Placed) / float64(ev.Requested)
	}
	s.fillRatio.WithLabelValues(ev.GradeID, ev.Mode).Set(ratio)
	s.fillSkipped.WithLabelValues(ev.GradeID, ev.Mode).Set(float64(ev.Skipped))
	return nil
}

// RecordSubstitution sets the number of uncovered records.
func (s *PromSink) RecordSubstitution(ev coremetrics.SubstitutionEvent) error {
	s.open.Set(float64(ev.Unassigned))
	return nil
}

// RecordWorkload replaces the per-teacher load gauges.
func (s *PromSink) RecordWorkload(samples []coremetrics.WorkloadSample) error {
	s.load.Reset()
	over := 0
	for _, w := range samples {
		s.load.WithLabelValues(w.TeacherID).Set(float64(w.Periods))
		if w.Cap > 0 && w.Periods >= w.Cap {
			over++
		}
	}
	s.overCap.Set(float64(over))
	return nil
}
