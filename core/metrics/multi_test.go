package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	ops, fills, subs int
}

func (r *recordSink) RecordOperation(OperationEvent) error { r.ops++; return nil }
func (r *recordSink) RecordFill(FillEvent) error           { r.fills++; return nil }

type opOnly struct{ err error }

func (o opOnly) RecordOperation(OperationEvent) error { return o.err }

// TestMultiSink ensures events are forwarded to every sink that supports them.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, opOnly{})
	if err := m.RecordOperation(OperationEvent{Operation: "fill"}); err != nil {
		t.Fatalf("record op: %v", err)
	}
	if err := m.RecordFill(FillEvent{Placed: 4}); err != nil {
		t.Fatalf("record fill: %v", err)
	}
	if err := m.RecordSubstitution(SubstitutionEvent{}); err != nil {
		t.Fatalf("record sub: %v", err)
	}
	if s1.ops != 1 || s2.ops != 1 || s1.fills != 1 || s2.fills != 1 {
		t.Fatalf("unexpected counts %+v %+v", s1, s2)
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s := &recordSink{}
	m := NewMultiSink(opOnly{err: boom}, s)
	if err := m.RecordOperation(OperationEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if s.ops != 0 {
		t.Fatalf("expected second sink skipped")
	}
}
