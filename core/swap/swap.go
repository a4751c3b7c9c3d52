// Package swap relocates the contents of one cell to another for a single
// section, teacher or room. When an entry belongs to a pool block, the whole
// block group at that cell moves with it. If the target holds a matching
// entry the two sides are exchanged, otherwise the source simply moves.
//
// MoveOrSwap does not check third parties: a move can double-book a teacher
// elsewhere. Interactive callers pre-filter targets with Targets.
package swap

import (
	"context"
	"fmt"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const component = "swap"

// Engine performs moves and swaps.
type Engine struct {
	env *engine.Env
}

// New returns a swap engine.
func New(env *engine.Env) *Engine { return &Engine{env: env} }

// Result describes a completed move or swap.
type Result struct {
	NoOp    bool                  `json:"no_op"`
	Swapped bool                  `json:"swapped"`
	Removed []string              `json:"removed"`
	Created []model.ScheduleEntry `json:"created"`
}

// group returns the weekly entries at c carrying en, expanded to their block
// group.
func (e *Engine) group(mode model.Mode, c model.Cell, en model.Entity) []model.ScheduleEntry {
	var first *model.ScheduleEntry
	at := e.env.Grid.Entries(mode, grid.Filter{Day: c.Day, SlotID: c.SlotID})
	for i := range at {
		if !at[i].Dated() && en.Matches(at[i]) {
			first = &at[i]
			break
		}
	}
	if first == nil {
		return nil
	}
	if first.BlockID == "" {
		return []model.ScheduleEntry{*first}
	}
	var out []model.ScheduleEntry
	for _, x := range at {
		if !x.Dated() && x.BlockID == first.BlockID {
			out = append(out, x)
		}
	}
	return out
}

func (e *Engine) relocate(es []model.ScheduleEntry, to model.Cell) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0, len(es))
	for _, x := range es {
		x.ID = e.env.NewID()
		x.Day = to.Day
		x.SlotID = to.SlotID
		out = append(out, x)
	}
	return out
}

func validate(source, target model.Cell, en model.Entity) error {
	if en.ID == "" {
		return &model.ValidationError{Field: "entity", Reason: "id required"}
	}
	if en.Kind < model.KindSection || en.Kind > model.KindRoom {
		return &model.ValidationError{Field: "entity", Reason: "unknown kind"}
	}
	if !source.Day.Valid() || source.SlotID == "" {
		return &model.ValidationError{Field: "source", Reason: "day and slot required"}
	}
	if !target.Day.Valid() || target.SlotID == "" {
		return &model.ValidationError{Field: "target", Reason: "day and slot required"}
	}
	return nil
}

// MoveOrSwap exchanges en's entries between source and target in mode. The
// old entries are replaced by new ones with fresh ids in one store write.
// Equal cells are a no-op; ErrNotFound is returned when neither cell holds
// en.
func (e *Engine) MoveOrSwap(ctx context.Context, mode model.Mode, source, target model.Cell, en model.Entity) (Result, error) {
	if err := validate(source, target, en); err != nil {
		return Result{}, err
	}
	if source == target {
		return Result{NoOp: true}, nil
	}
	src := e.group(mode, source, en)
	tgt := e.group(mode, target, en)
	if len(src) == 0 && len(tgt) == 0 {
		return Result{}, fmt.Errorf("swap %s %s: %w", en.Kind, en.ID, model.ErrNotFound)
	}
	res := Result{Swapped: len(src) > 0 && len(tgt) > 0}
	for _, x := range append(append([]model.ScheduleEntry{}, src...), tgt...) {
		res.Removed = append(res.Removed, x.ID)
	}
	res.Created = append(e.relocate(src, target), e.relocate(tgt, source)...)

	if err := e.env.Commit(component, "replace", func() error {
		return e.env.Store.Replace(ctx, mode, grid.ByIDs(res.Removed...), res.Created)
	}); err != nil {
		return Result{}, err
	}
	e.env.Grid.ApplyEntries(mode, res.Removed, res.Created)
	e.env.Log.Debugw("swap", map[string]any{
		"mode": mode.String(), "kind": en.Kind.String(), "id": en.ID,
		"source": fmt.Sprintf("%s/%s", source.Day, source.SlotID),
		"target": fmt.Sprintf("%s/%s", target.Day, target.SlotID),
		"moved":  len(res.Created), "swapped": res.Swapped,
	})
	e.env.Emit(events.SwapEvent{Mode: mode, Source: source, Target: target, Moved: len(res.Created), Swapped: res.Swapped})
	return res, nil
}

// Targets lists the cells en's source group could move or swap to without
// creating a section or teacher conflict in mode. Cells come from the school
// days and the teaching slots of the first section involved.
func (e *Engine) Targets(mode model.Mode, source model.Cell, en model.Entity) ([]model.Cell, error) {
	src := e.group(mode, source, en)
	if len(src) == 0 {
		return nil, fmt.Errorf("swap targets %s %s: %w", en.Kind, en.ID, model.ErrNotFound)
	}
	slots, err := directory.TeachingSlots(e.env.Dir, src[0].SectionID)
	if err != nil {
		return nil, err
	}
	base := e.env.Oracle.Snapshot(availability.Scope{Mode: mode, Week: e.env.Now()})
	var out []model.Cell
	for _, d := range e.env.Dir.Days() {
		for _, s := range slots {
			c := model.Cell{Day: d, SlotID: s.ID}
			if c == source {
				continue
			}
			if e.fits(base, src, e.group(mode, c, en), source, c) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// fits simulates the exchange on occ and undoes it before returning.
func (e *Engine) fits(occ *availability.Occupancy, src, tgt []model.ScheduleEntry, from, to model.Cell) bool {
	for _, x := range src {
		occ.Release(x)
	}
	for _, x := range tgt {
		occ.Release(x)
	}
	defer func() {
		for _, x := range src {
			occ.Reserve(x)
		}
		for _, x := range tgt {
			occ.Reserve(x)
		}
	}()
	return free(occ, src, to) && free(occ, tgt, from)
}

func free(occ *availability.Occupancy, es []model.ScheduleEntry, at model.Cell) bool {
	for _, x := range es {
		for _, k := range []model.EntityKind{model.KindSection, model.KindTeacher} {
			q := availability.Query{Kind: k, ID: k.Key(x), Day: at.Day, SlotID: at.SlotID, BlockID: x.BlockID}
			if !occ.IsFree(q) {
				return false
			}
		}
	}
	return true
}
