// Package availability answers "is this section, teacher or room free at this
// cell" over the grid and the active substitution overlay. It never mutates
// anything; mutating components consult it before they commit.
package availability

import (
	"time"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

// Scope selects which state a query sees.
//
// In live mode only live entries count. In draft mode the draft counts
// together with the live entries of sections the draft does not shadow. A
// section is shadowed when the draft already holds entries for it or when it
// is listed in Shadow, since publishing replaces those sections wholesale.
//
// Dated entries and substitutions are overlays. A non-zero Date only admits
// overlays of that exact date. Without a Date, Week admits the overlays of
// the week containing it, each on its weekday. With neither set only the
// weekly grid counts.
type Scope struct {
	Mode   model.Mode
	Date   time.Time
	Week   time.Time
	Shadow []string
}

// Query asks whether one entity is free at one cell. ExcludeEntryID ignores a
// single holder, typically the entry being moved. BlockID ignores teacher and
// room holders belonging to the same block group.
type Query struct {
	Kind           model.EntityKind
	ID             string
	Day            model.Day
	SlotID         string
	ExcludeEntryID string
	BlockID        string
}

// Oracle reads a grid.
type Oracle struct {
	grid *grid.Grid
}

// New returns an oracle over g.
func New(g *grid.Grid) *Oracle { return &Oracle{grid: g} }

// IsFree answers a single query against the current grid.
func (o *Oracle) IsFree(scope Scope, q Query) bool {
	return o.Snapshot(scope).IsFree(q)
}

// AllFree reports whether every query is free.
func (o *Oracle) AllFree(scope Scope, qs ...Query) bool {
	occ := o.Snapshot(scope)
	for _, q := range qs {
		if !occ.IsFree(q) {
			return false
		}
	}
	return true
}

// Snapshot indexes the state visible in scope.
func (o *Oracle) Snapshot(scope Scope) *Occupancy {
	occ := newOccupancy()
	if scope.Mode == model.ModeDraft {
		draft := o.grid.Entries(model.ModeDraft, grid.Filter{})
		shadow := map[string]bool{}
		for _, id := range scope.Shadow {
			shadow[id] = true
		}
		for _, e := range draft {
			shadow[e.SectionID] = true
		}
		for _, e := range o.grid.Entries(model.ModeLive, grid.Filter{}) {
			if !shadow[e.SectionID] && scope.admits(e.Date) {
				occ.Reserve(e)
			}
		}
		for _, e := range draft {
			if scope.admits(e.Date) {
				occ.Reserve(e)
			}
		}
	} else {
		for _, e := range o.grid.Entries(model.ModeLive, grid.Filter{}) {
			if scope.admits(e.Date) {
				occ.Reserve(e)
			}
		}
	}
	for _, r := range o.grid.Substitutions() {
		if r.Assigned() && scope.admits(r.Date) {
			occ.ReserveSubstitution(r)
		}
	}
	return occ
}

// Violations lists the exclusivity violations visible in scope.
func (o *Oracle) Violations(scope Scope) []model.ConflictError {
	return o.Snapshot(scope).Violations()
}

// Check returns a ConflictError for the first query that is not free.
func (o *Oracle) Check(scope Scope, qs ...Query) error {
	occ := o.Snapshot(scope)
	for _, q := range qs {
		if !occ.IsFree(q) {
			return &model.ConflictError{Kind: q.Kind, ID: q.ID, Day: q.Day, SlotID: q.SlotID}
		}
	}
	return nil
}

// admits reports whether an item dated d is visible. Undated items always are.
func (s Scope) admits(d time.Time) bool {
	switch {
	case d.IsZero():
		return true
	case !s.Date.IsZero():
		return model.SameDate(d, s.Date)
	case !s.Week.IsZero():
		return model.WeekStart(d).Equal(model.WeekStart(s.Week))
	}
	return false
}

// EntryQueries returns the section, teacher and room queries that placing e
// must satisfy.
func EntryQueries(e model.ScheduleEntry) []Query {
	out := make([]Query, 0, 3)
	for _, k := range kinds {
		out = append(out, Query{Kind: k, ID: k.Key(e), Day: e.Day, SlotID: e.SlotID, ExcludeEntryID: e.ID, BlockID: e.BlockID})
	}
	return out
}
