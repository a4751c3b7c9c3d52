package metrics

import "time"

// OperationEvent is one completed engine operation.
type OperationEvent struct {
	Operation string
	Mode      string
	Failed    bool
	Count     int
	Time      time.Time
}

// MetricsSink records engine operations for observability purposes.
type MetricsSink interface {
	RecordOperation(ev OperationEvent) error
}

// FillEvent summarises one auto-fill run.
type FillEvent struct {
	GradeID   string
	Mode      string
	Requested int
	Placed    int
	Skipped   int
	Duration  time.Duration
	Time      time.Time
}

// FillRecorder records auto-fill outcomes.
type FillRecorder interface {
	RecordFill(ev FillEvent) error
}

// SubstitutionEvent summarises one assignment pass.
type SubstitutionEvent struct {
	Date       time.Time
	Assigned   int
	Unassigned int
	Time       time.Time
}

// SubstitutionRecorder records substitution assignment outcomes.
type SubstitutionRecorder interface {
	RecordSubstitution(ev SubstitutionEvent) error
}

// WorkloadSample is a teacher's weekly load at a point in time.
type WorkloadSample struct {
	TeacherID string
	Periods   int
	Cap       int
	Time      time.Time
}

// WorkloadRecorder records weekly loads.
type WorkloadRecorder interface {
	RecordWorkload(samples []WorkloadSample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordOperation(OperationEvent) error       { return nil }
func (NopSink) RecordFill(FillEvent) error                 { return nil }
func (NopSink) RecordSubstitution(SubstitutionEvent) error { return nil }
func (NopSink) RecordWorkload([]WorkloadSample) error      { return nil }
