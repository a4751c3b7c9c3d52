// Package eventbus is a small in-process fan-out bus used to decouple the
// scheduling engines from journaling and metrics.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/kilianp07/timetable/core/events"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// EventBus implements a publish/subscribe event bus.
type EventBus interface {
	Publish(events.Event)
	Subscribe() <-chan events.Event
	Unsubscribe(<-chan events.Event)
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
// Delivery never blocks the publisher: events for a full subscriber are
// dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    []chan events.Event
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// New creates a Bus with DefaultBuffer.
func New() *Bus { return NewBuffered(DefaultBuffer) }

// NewBuffered creates a Bus whose subscriber channels hold n events.
func NewBuffered(n int) *Bus {
	if n < 1 {
		n = 1
	}
	return &Bus{buffer: n}
}

// Publish sends the event to all subscribers.
func (b *Bus) Publish(e events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan events.Event {
	ch := make(chan events.Event, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Emit publishes e when bus is non-nil.
func Emit(bus EventBus, e events.Event) {
	if bus != nil {
		bus.Publish(e)
	}
}
