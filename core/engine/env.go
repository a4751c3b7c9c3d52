// Package engine holds the collaborators shared by every mutating
// component: the in-memory grid, the durable store behind it, the school
// directory and the availability oracle, plus logging and event plumbing.
//
// All mutations follow the same discipline: validate against memory, write
// to the store, and only then apply the change to the grid. Commit wraps the
// store write so a failure leaves memory untouched and is reported once.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/logger"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/core/monitoring"
	"github.com/kilianp07/timetable/internal/eventbus"
)

// Env bundles the engine collaborators. Grid, Store and Dir are required.
type Env struct {
	Grid   *grid.Grid
	Store  grid.Store
	Dir    directory.Directory
	Oracle *availability.Oracle
	Log    logger.Logger
	Bus    eventbus.EventBus
	// NewID generates surrogate entry and record ids. Defaults to UUIDv4.
	NewID func() string
	// Now anchors the week whose overlays weekly checks see. Defaults to
	// time.Now.
	Now func() time.Time
}

// New returns an Env with defaults for the optional fields.
func New(g *grid.Grid, s grid.Store, dir directory.Directory) *Env {
	e := &Env{Grid: g, Store: s, Dir: dir}
	e.init()
	return e
}

// With returns a copy of e logging through l and publishing on bus.
func (e *Env) With(l logger.Logger, bus eventbus.EventBus) *Env {
	c := *e
	c.Log = logger.OrNop(l)
	c.Bus = bus
	return &c
}

func (e *Env) init() {
	if e.Oracle == nil {
		e.Oracle = availability.New(e.Grid)
	}
	e.Log = logger.OrNop(e.Log)
	if e.NewID == nil {
		e.NewID = func() string { return uuid.NewString() }
	}
	if e.Now == nil {
		e.Now = time.Now
	}
}

// Commit runs write against the store. A failure is wrapped into a
// PersistenceError, logged, reported to monitoring and published as a
// FailureEvent; the caller must then return without touching the grid.
func (e *Env) Commit(component, op string, write func() error) error {
	err := model.Persist(op, write())
	if err == nil {
		return nil
	}
	e.Log.Errorf("%s: %v", component, err)
	monitoring.CapturePersistence(component, err)
	e.Emit(events.FailureEvent{Op: op, Err: err})
	return err
}

// Emit publishes ev on the bus when one is configured.
func (e *Env) Emit(ev events.Event) { eventbus.Emit(e.Bus, ev) }

// MaxWeeklyPeriods returns the directory's cap or the package default.
func (e *Env) MaxWeeklyPeriods() int {
	if n := e.Dir.MaxWeeklyPeriods(); n > 0 {
		return n
	}
	return directory.DefaultMaxWeeklyPeriods
}
