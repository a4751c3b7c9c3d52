// Package journal keeps an append-only audit trail of engine operations.
// Every event published on the bus becomes one Record, so partial outcomes
// such as skipped fills or unassigned substitutions are never lost.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/logger"
	"github.com/kilianp07/timetable/internal/eventbus"
)

// Record captures one engine event.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Limit keeps the most
// recent records when positive.
type Query struct {
	Start time.Time
	End   time.Time
	Event string
	Limit int
}

// Match reports whether r passes the time and event filters of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.Event == "" || r.Event == q.Event
}

// Tail applies q.Limit to records sorted oldest first.
func (q Query) Tail(rs []Record) []Record {
	if q.Limit > 0 && len(rs) > q.Limit {
		return rs[len(rs)-q.Limit:]
	}
	return rs
}

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// FromEvent converts ev into a record stamped at now.
func FromEvent(ev events.Event, now time.Time) (Record, error) {
	rec := Record{Timestamp: now, Event: ev.Name()}
	if f, ok := ev.(events.FailureEvent); ok {
		if f.Err != nil {
			rec.Error = f.Err.Error()
		}
		ev = events.FailureEvent{Op: f.Op}
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return Record{}, err
	}
	rec.Payload = b
	return rec, nil
}

// StartRecorder appends every bus event to store until ctx is cancelled or
// the bus closes. done is closed once the recorder has stopped.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) (done <-chan struct{}) {
	ch := make(chan struct{})
	if bus == nil || store == nil {
		close(ch)
		return ch
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer close(ch)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				rec, err := FromEvent(ev, time.Now().UTC())
				if err != nil {
					log.Warnf("journal: encode %s: %v", ev.Name(), err)
					continue
				}
				if err := store.Append(ctx, rec); err != nil {
					log.Errorf("journal: append %s: %v", ev.Name(), err)
				}
			}
		}
	}()
	return ch
}
