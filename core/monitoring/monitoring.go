// Package monitoring is the error-reporting facade. The engines report
// failed durable writes here; infra/monitoring provides the Sentry adapter.
package monitoring

import (
	"errors"
	"time"

	"github.com/kilianp07/timetable/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil && err != nil {
		current.CaptureException(err, tags)
	}
}

// CapturePersistence reports err when it carries a PersistenceError, tagged
// with the failed operation and the engine component.
func CapturePersistence(component string, err error) {
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		return
	}
	CaptureException(err, map[string]string{"component": component, "op": pe.Op})
}

// Recover captures panics in goroutines.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
