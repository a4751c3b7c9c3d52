package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOperation forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordOperation(ev OperationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOperation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFill forwards fill outcomes to sinks implementing FillRecorder.
func (m *MultiSink) RecordFill(ev FillEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FillRecorder); ok {
			if err := rec.RecordFill(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSubstitution forwards substitution outcomes.
func (m *MultiSink) RecordSubstitution(ev SubstitutionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SubstitutionRecorder); ok {
			if err := rec.RecordSubstitution(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWorkload forwards workload samples.
func (m *MultiSink) RecordWorkload(samples []WorkloadSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(WorkloadRecorder); ok {
			if err := rec.RecordWorkload(samples); err != nil {
				return err
			}
		}
	}
	return nil
}
