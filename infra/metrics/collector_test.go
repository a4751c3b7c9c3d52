package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/timetable/core/events"
	coremetrics "github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/internal/eventbus"
)

type recSink struct {
	mu       sync.Mutex
	ops      []coremetrics.OperationEvent
	fills    []coremetrics.FillEvent
	subs     []coremetrics.SubstitutionEvent
	workload int
}

func (r *recSink) RecordOperation(ev coremetrics.OperationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ev)
	return nil
}

func (r *recSink) RecordFill(ev coremetrics.FillEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fills = append(r.fills, ev)
	return nil
}

func (r *recSink) RecordSubstitution(ev coremetrics.SubstitutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, ev)
	return nil
}

func (r *recSink) RecordWorkload([]coremetrics.WorkloadSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workload++
	return nil
}

func TestEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &recSink{}
	samples := func(now time.Time) []coremetrics.WorkloadSample {
		return []coremetrics.WorkloadSample{{TeacherID: "t1", Periods: 3, Cap: 35, Time: now}}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink, samples)

	bus.Publish(events.FillEvent{GradeID: "g1", Mode: model.ModeDraft, Requested: 4, Placed: 3, Skipped: 1})
	bus.Publish(events.SubstitutionEvent{Action: "assign", Assigned: 2, Unassigned: 1})
	bus.Publish(events.BlockEvent{Action: "deploy", Mode: model.ModeLive, Entries: 3})
	bus.Publish(events.FailureEvent{Op: "swap.MoveOrSwap", Err: errors.New("boom")})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.ops) != 4 {
		t.Fatalf("expected 4 operations got %d", len(sink.ops))
	}
	if sink.ops[0].Operation != "fill" || sink.ops[0].Mode != "draft" || sink.ops[0].Count != 3 {
		t.Fatalf("unexpected fill op %+v", sink.ops[0])
	}
	if sink.ops[2].Operation != "block_deploy" || sink.ops[2].Mode != "live" {
		t.Fatalf("unexpected block op %+v", sink.ops[2])
	}
	if !sink.ops[3].Failed || sink.ops[3].Operation != "swap.MoveOrSwap" {
		t.Fatalf("unexpected failure op %+v", sink.ops[3])
	}
	if len(sink.fills) != 1 || sink.fills[0].Skipped != 1 {
		t.Fatalf("unexpected fills %+v", sink.fills)
	}
	if len(sink.subs) != 1 || sink.subs[0].Unassigned != 1 {
		t.Fatalf("unexpected substitutions %+v", sink.subs)
	}
	if sink.workload != 3 {
		t.Fatalf("expected workload sampled after 3 grid changes, got %d", sink.workload)
	}
}

func TestEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, &recSink{}, nil)
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}
