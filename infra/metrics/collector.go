package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/timetable/core/events"
	coremetrics "github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/internal/eventbus"
)

// WorkloadFunc samples teacher loads after the grid changed.
type WorkloadFunc func(now time.Time) []coremetrics.WorkloadSample

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed once the subscription is released.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, workload WorkloadFunc) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev, workload, time.Now())
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event, workload WorkloadFunc, now time.Time) {
	op := coremetrics.OperationEvent{Operation: ev.Name(), Count: 1, Time: now}
	changed := true
	switch e := ev.(type) {
	case events.FillEvent:
		op.Mode, op.Count = e.Mode.String(), e.Placed
		if r, ok := sink.(coremetrics.FillRecorder); ok {
			_ = r.RecordFill(coremetrics.FillEvent{
				GradeID: e.GradeID, Mode: e.Mode.String(), Requested: e.Requested,
				Placed: e.Placed, Skipped: e.Skipped, Duration: e.Duration, Time: now,
			})
		}
	case events.ClearEvent:
		op.Mode, op.Count = e.Mode.String(), e.Removed
	case events.SwapEvent:
		op.Mode, op.Count = e.Mode.String(), e.Moved
	case events.BlockEvent:
		op.Operation = "block_" + e.Action
		op.Count = e.Entries
		if e.Action == "deploy" || e.Action == "dismantle" {
			op.Mode = e.Mode.String()
		}
	case events.PublishEvent:
		op.Count = e.Entries
		if e.Discarded {
			op.Operation = "discard"
		}
	case events.SubstitutionEvent:
		op.Operation = "substitution_" + e.Action
		op.Count = e.Created + e.Assigned + e.Archived
		if e.Action == "assign" {
			if r, ok := sink.(coremetrics.SubstitutionRecorder); ok {
				_ = r.RecordSubstitution(coremetrics.SubstitutionEvent{
					Date: e.Date, Assigned: e.Assigned, Unassigned: e.Unassigned, Time: now,
				})
			}
		}
	case events.FailureEvent:
		op.Operation, op.Failed = e.Op, true
		changed = false
	}
	_ = sink.RecordOperation(op)
	if !changed || workload == nil {
		return
	}
	if r, ok := sink.(coremetrics.WorkloadRecorder); ok {
		_ = r.RecordWorkload(workload(now))
	}
}
