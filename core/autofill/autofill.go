// Package autofill fills a grade's weekly grid. Pool blocks are placed first
// because every section and teacher of a block must be free in one cell;
// individual teacher loads follow. Placement is first-fit over the school
// days in order and the teaching slots of the grade's wing in order.
//
// Fill is not idempotent: callers clear the grade (ClearGrade) before
// re-running it.
package autofill

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const component = "autofill"

// Engine places a grade's blocks and loads.
type Engine struct {
	env *engine.Env
}

// New returns an auto-fill engine.
func New(env *engine.Env) *Engine { return &Engine{env: env} }

// run carries the state of one Fill.
type run struct {
	occ     *availability.Occupancy
	cells   []model.Cell
	subject map[string]map[model.Day]map[string]bool
	placed  []model.ScheduleEntry
	report  Report
}

// Fill places the grade's periods into mode. Blocks and loads come from the
// grid's templates and assignments.
//
// In draft mode the grade's sections are shadowed, so their current live
// entries do not block candidates. Publish only replaces sections that hold
// draft entries, so a shadowed section left without any while it still has
// live entries is unshadowed and the run repeats until every shadowed section
// is covered.
//
// Periods without a free cell are listed in the report. The placed entries
// are written with one BulkInsert; on failure nothing is applied. A
// cancelled ctx aborts the run before anything is written.
func (e *Engine) Fill(ctx context.Context, mode model.Mode, gradeID string) (Report, error) {
	start := time.Now()
	grade, ok := e.env.Dir.Grade(gradeID)
	if !ok {
		return Report{}, fmt.Errorf("fill %s: %w", gradeID, model.ErrUnknownGrade)
	}
	sections := e.env.Dir.Sections(gradeID)
	var cells []model.Cell
	if len(sections) > 0 {
		slots, err := directory.TeachingSlots(e.env.Dir, sections[0].ID)
		if err != nil {
			return Report{}, fmt.Errorf("fill %s: %w", gradeID, err)
		}
		for _, d := range e.env.Dir.Days() {
			for _, s := range slots {
				cells = append(cells, model.Cell{Day: d, SlotID: s.ID})
			}
		}
	}
	shadow := make([]string, 0, len(sections))
	for _, s := range sections {
		shadow = append(shadow, s.ID)
	}

	var r *run
	for {
		var err error
		if r, err = e.plan(ctx, mode, grade, sections, cells, shadow); err != nil {
			return Report{}, err
		}
		if mode != model.ModeDraft {
			break
		}
		covered := e.covered(r, shadow)
		if len(covered) == len(shadow) {
			break
		}
		shadow = covered
	}

	if len(r.placed) > 0 {
		err := e.env.Commit(component, "bulk_insert", func() error {
			return e.env.Store.BulkInsert(ctx, mode, r.placed)
		})
		if err != nil {
			return Report{}, err
		}
		e.env.Grid.ApplyEntries(mode, nil, r.placed)
	}
	r.report.Placed = len(r.placed)
	r.report.Entries = r.placed

	elapsed := time.Since(start)
	fillDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	periodsTotal.WithLabelValues(gradeID, "placed").Add(float64(r.report.Placed))
	periodsTotal.WithLabelValues(gradeID, "skipped").Add(float64(len(r.report.Skipped)))
	e.env.Log.Infof("filled %s (%s): %d/%d placed, %d skipped", grade.Name, mode, r.report.Placed, r.report.TotalRequested, len(r.report.Skipped))
	e.env.Emit(events.FillEvent{
		GradeID:   gradeID,
		GradeName: grade.Name,
		Mode:      mode,
		Requested: r.report.TotalRequested,
		Placed:    r.report.Placed,
		Skipped:   len(r.report.Skipped),
		Duration:  elapsed,
	})
	return r.report, nil
}

// plan runs one placement pass with shadow as the draft shadow set.
func (e *Engine) plan(ctx context.Context, mode model.Mode, grade model.Grade, sections []model.Section, cells []model.Cell, shadow []string) (*run, error) {
	r := &run{
		cells:   cells,
		subject: map[string]map[model.Day]map[string]bool{},
		report:  Report{GradeID: grade.ID, GradeName: grade.Name, Mode: mode, Skipped: []Skip{}},
	}
	ids := make([]string, 0, len(sections))
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	r.occ = e.env.Oracle.Snapshot(availability.Scope{Mode: mode, Week: e.env.Now(), Shadow: shadow})
	for _, en := range e.env.Grid.Entries(mode, grid.Filter{SectionIDs: ids}) {
		r.markSubject(en)
	}

	for _, b := range e.env.Grid.GradeBlocks(grade.ID) {
		if err := e.placeBlock(ctx, r, b); err != nil {
			return nil, err
		}
	}
	for _, s := range sections {
		for _, a := range e.env.Grid.Assignments() {
			if a.GradeID != grade.ID {
				continue
			}
			for _, l := range a.Loads {
				if l.SectionID != s.ID {
					continue
				}
				if err := e.placeLoad(ctx, r, s, a.TeacherID, l); err != nil {
					return nil, err
				}
			}
		}
	}
	return r, nil
}

// covered returns the shadowed sections Publish will replace after r: those
// with draft entries, planned or existing, and those with nothing live.
func (e *Engine) covered(r *run, shadow []string) []string {
	planned := map[string]bool{}
	for _, en := range r.placed {
		planned[en.SectionID] = true
	}
	out := make([]string, 0, len(shadow))
	for _, id := range shadow {
		f := grid.Filter{SectionIDs: []string{id}}
		if planned[id] || len(e.env.Grid.Entries(model.ModeDraft, f)) > 0 || len(e.env.Grid.Entries(model.ModeLive, f)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// requiredPeriods is the block's weekly count, or the largest group total
// among its teachers when the block leaves it unset.
func (e *Engine) requiredPeriods(b model.CombinedBlock) int {
	if b.WeeklyPeriods > 0 {
		return b.WeeklyPeriods
	}
	n := 0
	for _, t := range b.TeacherIDs() {
		if a, ok := e.env.Grid.Assignment(t, b.GradeID); ok && a.GroupPeriods > n {
			n = a.GroupPeriods
		}
	}
	return n
}

func (e *Engine) placeBlock(ctx context.Context, r *run, b model.CombinedBlock) error {
	required := e.requiredPeriods(b)
	pairs := b.Pairings()
	r.report.TotalRequested += required * len(pairs)
	got := 0
	for _, c := range r.cells {
		if got == required {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		group := b.Entries(c, e.env.NewID)
		if !r.groupFree(group) {
			continue
		}
		for _, en := range group {
			r.occ.Reserve(en)
			r.markSubject(en)
		}
		r.placed = append(r.placed, group...)
		got++
	}
	for i := got; i < required; i++ {
		for _, p := range pairs {
			r.report.Skipped = append(r.report.Skipped, Skip{
				SectionID: p.SectionID,
				TeacherID: p.Allocation.TeacherID,
				Subject:   p.Allocation.Subject,
				BlockID:   b.ID,
				Reason:    ReasonNoSlot,
			})
		}
	}
	if got < required {
		e.env.Log.Warnf("block %s: placed %d of %d periods", b.Title, got, required)
	}
	return nil
}

// groupFree checks every section and teacher of a block group.
func (r *run) groupFree(group []model.ScheduleEntry) bool {
	for _, en := range group {
		if !r.occ.IsFree(availability.Query{Kind: model.KindSection, ID: en.SectionID, Day: en.Day, SlotID: en.SlotID}) {
			return false
		}
		if !r.occ.IsFree(availability.Query{Kind: model.KindTeacher, ID: en.TeacherID, Day: en.Day, SlotID: en.SlotID, BlockID: en.BlockID}) {
			return false
		}
	}
	return true
}

func (e *Engine) placeLoad(ctx context.Context, r *run, s model.Section, teacherID string, l model.Load) error {
	room := l.Room
	if room == "" {
		room = s.HomeRoom
	}
	r.report.TotalRequested += l.Periods
	for i := 0; i < l.Periods; i++ {
		c, ok, err := r.firstCell(ctx, s.ID, teacherID, l.Subject, true)
		if err != nil {
			return err
		}
		if !ok {
			c, ok, err = r.firstCell(ctx, s.ID, teacherID, l.Subject, false)
			if err != nil {
				return err
			}
		}
		if !ok {
			r.report.Skipped = append(r.report.Skipped, Skip{SectionID: s.ID, TeacherID: teacherID, Subject: l.Subject, Reason: ReasonNoSlot})
			continue
		}
		en := model.ScheduleEntry{
			ID:        e.env.NewID(),
			Day:       c.Day,
			SlotID:    c.SlotID,
			SectionID: s.ID,
			TeacherID: teacherID,
			Subject:   l.Subject,
			Room:      room,
		}
		r.occ.Reserve(en)
		r.markSubject(en)
		r.placed = append(r.placed, en)
	}
	return nil
}

// firstCell returns the first cell where section and teacher are free. With
// spread set, days already holding the subject for the section are skipped.
func (r *run) firstCell(ctx context.Context, sectionID, teacherID, subject string, spread bool) (model.Cell, bool, error) {
	for _, c := range r.cells {
		if err := ctx.Err(); err != nil {
			return model.Cell{}, false, err
		}
		if spread && r.subject[sectionID][c.Day][subject] {
			continue
		}
		if !r.occ.IsFree(availability.Query{Kind: model.KindSection, ID: sectionID, Day: c.Day, SlotID: c.SlotID}) {
			continue
		}
		if !r.occ.IsFree(availability.Query{Kind: model.KindTeacher, ID: teacherID, Day: c.Day, SlotID: c.SlotID}) {
			continue
		}
		return c, true, nil
	}
	return model.Cell{}, false, nil
}

func (r *run) markSubject(en model.ScheduleEntry) {
	days, ok := r.subject[en.SectionID]
	if !ok {
		days = map[model.Day]map[string]bool{}
		r.subject[en.SectionID] = days
	}
	if days[en.Day] == nil {
		days[en.Day] = map[string]bool{}
	}
	days[en.Day][en.Subject] = true
}

// ClearGrade removes every entry of the grade's sections from mode and
// returns how many were removed.
func (e *Engine) ClearGrade(ctx context.Context, mode model.Mode, gradeID string) (int, error) {
	if _, ok := e.env.Dir.Grade(gradeID); !ok {
		return 0, fmt.Errorf("clear %s: %w", gradeID, model.ErrUnknownGrade)
	}
	var ids []string
	for _, s := range e.env.Dir.Sections(gradeID) {
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	f := grid.Filter{SectionIDs: ids}
	if err := e.env.Commit(component, "delete_where", func() error {
		return e.env.Store.DeleteWhere(ctx, mode, f)
	}); err != nil {
		return 0, err
	}
	removed := len(e.env.Grid.RemoveWhere(mode, f))
	e.env.Log.Infof("cleared %s (%s): %d entries", gradeID, mode, removed)
	e.env.Emit(events.ClearEvent{GradeID: gradeID, Mode: mode, Removed: removed})
	return removed, nil
}
