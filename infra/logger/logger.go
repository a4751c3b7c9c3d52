package logger

import corelogger "github.com/kilianp07/timetable/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything. Tests and embedded callers pass it to
// silence the engines.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger tagged with component. The output format follows
// APP_ENV and the level follows SetLevel.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// OrNew returns l, or a new component logger when l is nil.
func OrNew(l Logger, component string) Logger {
	if l != nil {
		return l
	}
	return New(component)
}
