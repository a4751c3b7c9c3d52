// Package blockpool manages parallel pool templates. A pool lets several
// sections of a grade take different subjects with different teachers in one
// shared cell. Deploying a template writes one entry per section, all stamped
// with the block id, as a single store write.
//
// Every template change recomputes the group periods of the teachers
// involved: the sum of WeeklyPeriods over the grade's templates naming that
// teacher. The total is stored on the teacher's Assignment for the grade.
package blockpool

import (
	"context"
	"fmt"
	"sort"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const component = "blockpool"

// Manager owns pool templates and their deployments.
type Manager struct {
	env *engine.Env
}

// New returns a pool manager.
func New(env *engine.Env) *Manager { return &Manager{env: env} }

// Orphan groups deployed entries whose template no longer exists.
type Orphan struct {
	BlockID   string                `json:"block_id"`
	BlockName string                `json:"block_name"`
	Entries   []model.ScheduleEntry `json:"entries"`
}

// SaveBlock creates (empty ID) or replaces a template after validating it.
func (m *Manager) SaveBlock(ctx context.Context, b model.CombinedBlock) (model.CombinedBlock, error) {
	if err := check(b); err != nil {
		return model.CombinedBlock{}, err
	}
	if _, ok := m.env.Dir.Grade(b.GradeID); !ok {
		return model.CombinedBlock{}, &model.ValidationError{Field: "grade_id", Reason: fmt.Sprintf("unknown grade %q", b.GradeID)}
	}
	for _, sid := range b.SectionIDs {
		s, ok := m.env.Dir.Section(sid)
		if !ok || s.GradeID != b.GradeID {
			return model.CombinedBlock{}, &model.ValidationError{Field: "section_ids", Reason: fmt.Sprintf("section %q is not in grade %s", sid, b.GradeID)}
		}
	}
	for _, t := range b.TeacherIDs() {
		if _, ok := m.env.Dir.Teacher(t); !ok {
			return model.CombinedBlock{}, &model.ValidationError{Field: "allocations", Reason: fmt.Sprintf("unknown teacher %q", t)}
		}
	}
	b.SectionIDs = append([]string(nil), b.SectionIDs...)
	b.Allocations = append([]model.Allocation(nil), b.Allocations...)

	var prev *model.CombinedBlock
	if b.ID == "" {
		b.ID = m.env.NewID()
	} else if p, ok := m.env.Grid.Block(b.ID); ok {
		prev = &p
	}
	blocks := m.blocksWith(b.ID, &b)
	as := m.recompute(blocks, b.GradeID, b.TeacherIDs())
	if prev != nil {
		as = append(as, m.recompute(blocks, prev.GradeID, prev.TeacherIDs())...)
	}
	as = dedupe(as)

	if err := m.env.Commit(component, "save_block", func() error {
		return m.env.Store.SaveBlock(ctx, b, as)
	}); err != nil {
		return model.CombinedBlock{}, err
	}
	m.env.Grid.PutBlock(b)
	m.env.Grid.PutAssignments(as...)
	m.env.Log.Infof("saved block %s (%s) for %s", b.Title, b.ID, b.GradeID)
	m.env.Emit(events.BlockEvent{Action: "save", BlockID: b.ID, GradeID: b.GradeID})
	return b, nil
}

// RemoveBlock deletes a template. Deployed entries keep their block id and
// label; they are returned so the caller can see what was orphaned.
func (m *Manager) RemoveBlock(ctx context.Context, id string) ([]model.ScheduleEntry, error) {
	b, ok := m.env.Grid.Block(id)
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, model.ErrNotFound)
	}
	as := m.recompute(m.blocksWith(id, nil), b.GradeID, b.TeacherIDs())
	if err := m.env.Commit(component, "delete_block", func() error {
		return m.env.Store.DeleteBlock(ctx, id, as)
	}); err != nil {
		return nil, err
	}
	m.env.Grid.DeleteBlock(id)
	m.env.Grid.PutAssignments(as...)

	var orphaned []model.ScheduleEntry
	for _, mode := range []model.Mode{model.ModeLive, model.ModeDraft} {
		orphaned = append(orphaned, m.env.Grid.Entries(mode, grid.Filter{BlockID: id})...)
	}
	if len(orphaned) > 0 {
		m.env.Log.Warnf("block %s removed, %d deployed entries orphaned", b.Title, len(orphaned))
	}
	m.env.Emit(events.BlockEvent{Action: "remove", BlockID: id, GradeID: b.GradeID, Entries: len(orphaned)})
	return orphaned, nil
}

// DeployBlock writes the template into cell c of mode. Existing entries of
// the block's sections at c are replaced, not merged. A ConflictError is
// returned when an allocation teacher is busy at c outside those sections.
func (m *Manager) DeployBlock(ctx context.Context, mode model.Mode, id string, c model.Cell) ([]model.ScheduleEntry, error) {
	b, ok := m.env.Grid.Block(id)
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, model.ErrNotFound)
	}
	if err := check(b); err != nil {
		return nil, err
	}
	if err := m.checkCell(b, c); err != nil {
		return nil, err
	}
	entries := b.Entries(c, m.env.NewID)
	remove := grid.Filter{SectionIDs: b.SectionIDs, Day: c.Day, SlotID: c.SlotID}
	replaced := m.env.Grid.Entries(mode, remove)
	if err := m.checkTeachers(mode, b, c, replaced); err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(replaced))
	for _, e := range replaced {
		removed = append(removed, e.ID)
	}
	if err := m.env.Commit(component, "replace", func() error {
		return m.env.Store.Replace(ctx, mode, remove, entries)
	}); err != nil {
		return nil, err
	}
	m.env.Grid.ApplyEntries(mode, removed, entries)
	m.env.Log.Infof("deployed block %s at %s/%s (%s): %d entries, %d replaced", b.Title, c.Day, c.SlotID, mode, len(entries), len(removed))
	m.env.Emit(events.BlockEvent{Action: "deploy", BlockID: id, GradeID: b.GradeID, Mode: mode, Entries: len(entries)})
	return entries, nil
}

func (m *Manager) checkCell(b model.CombinedBlock, c model.Cell) error {
	dayOK := false
	for _, d := range m.env.Dir.Days() {
		if d == c.Day {
			dayOK = true
		}
	}
	if !dayOK {
		return &model.ValidationError{Field: "day", Reason: fmt.Sprintf("%s is not a school day", c.Day)}
	}
	for _, sid := range b.SectionIDs {
		if !directory.IsTeachingSlot(m.env.Dir, sid, c.SlotID) {
			return fmt.Errorf("section %s slot %s: %w", sid, c.SlotID, model.ErrUnknownSlot)
		}
	}
	return nil
}

// checkTeachers verifies the allocation teachers are free at c once the
// entries being replaced are gone.
func (m *Manager) checkTeachers(mode model.Mode, b model.CombinedBlock, c model.Cell, replaced []model.ScheduleEntry) error {
	occ := m.env.Oracle.Snapshot(availability.Scope{Mode: mode, Week: m.env.Now(), Shadow: b.SectionIDs})
	for _, e := range replaced {
		occ.Release(e)
	}
	for _, t := range b.TeacherIDs() {
		q := availability.Query{Kind: model.KindTeacher, ID: t, Day: c.Day, SlotID: c.SlotID, BlockID: b.ID}
		if !occ.IsFree(q) {
			return &model.ConflictError{Kind: model.KindTeacher, ID: t, Day: c.Day, SlotID: c.SlotID}
		}
	}
	return nil
}

// Dismantle removes the block's entries at one cell of mode, template or not.
func (m *Manager) Dismantle(ctx context.Context, mode model.Mode, blockID string, c model.Cell) (int, error) {
	if blockID == "" {
		return 0, &model.ValidationError{Field: "block_id", Reason: "is required"}
	}
	f := grid.Filter{BlockID: blockID, Day: c.Day, SlotID: c.SlotID}
	if len(m.env.Grid.Entries(mode, f)) == 0 {
		return 0, fmt.Errorf("block %s at %s/%s: %w", blockID, c.Day, c.SlotID, model.ErrNotFound)
	}
	if err := m.env.Commit(component, "delete_where", func() error {
		return m.env.Store.DeleteWhere(ctx, mode, f)
	}); err != nil {
		return 0, err
	}
	n := len(m.env.Grid.RemoveWhere(mode, f))
	m.env.Emit(events.BlockEvent{Action: "dismantle", BlockID: blockID, Mode: mode, Entries: n})
	return n, nil
}

// Orphans reports deployed entries of mode whose template is gone, grouped
// by block id.
func (m *Manager) Orphans(mode model.Mode) []Orphan {
	byID := map[string]*Orphan{}
	for _, e := range m.env.Grid.Entries(mode, grid.Filter{}) {
		if e.BlockID == "" {
			continue
		}
		if _, ok := m.env.Grid.Block(e.BlockID); ok {
			continue
		}
		o := byID[e.BlockID]
		if o == nil {
			o = &Orphan{BlockID: e.BlockID, BlockName: e.BlockName}
			byID[e.BlockID] = o
		}
		o.Entries = append(o.Entries, e)
	}
	out := make([]Orphan, 0, len(byID))
	for _, o := range byID {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockID < out[j].BlockID })
	return out
}

// blocksWith returns the current templates with id replaced by b, or
// dropped when b is nil.
func (m *Manager) blocksWith(id string, b *model.CombinedBlock) []model.CombinedBlock {
	var out []model.CombinedBlock
	for _, x := range m.env.Grid.Blocks() {
		if x.ID != id {
			out = append(out, x)
		}
	}
	if b != nil {
		out = append(out, *b)
	}
	return out
}

// recompute derives the assignments of teachers in grade from blocks.
func (m *Manager) recompute(blocks []model.CombinedBlock, gradeID string, teachers []string) []model.Assignment {
	out := make([]model.Assignment, 0, len(teachers))
	for _, t := range teachers {
		sum := 0
		for _, b := range blocks {
			if b.GradeID == gradeID && b.HasTeacher(t) {
				sum += b.WeeklyPeriods
			}
		}
		a, ok := m.env.Grid.Assignment(t, gradeID)
		if !ok {
			a = model.Assignment{TeacherID: t, GradeID: gradeID}
		}
		a.GroupPeriods = sum
		out = append(out, a)
	}
	return out
}

func dedupe(as []model.Assignment) []model.Assignment {
	seen := map[model.AssignmentKey]bool{}
	out := as[:0]
	for _, a := range as {
		if seen[a.Key()] {
			continue
		}
		seen[a.Key()] = true
		out = append(out, a)
	}
	return out
}

// GroupTotals returns base with GroupPeriods derived from blocks. Teachers
// only named by blocks get an assignment without loads, appended in block
// order. It seeds stores that are filled without going through SaveBlock.
func GroupTotals(base []model.Assignment, blocks []model.CombinedBlock) []model.Assignment {
	sums := map[model.AssignmentKey]int{}
	var extra []model.AssignmentKey
	for _, b := range blocks {
		for _, t := range b.TeacherIDs() {
			k := model.AssignmentKey{TeacherID: t, GradeID: b.GradeID}
			if _, ok := sums[k]; !ok {
				extra = append(extra, k)
			}
			sums[k] += b.WeeklyPeriods
		}
	}
	out := make([]model.Assignment, 0, len(base)+len(extra))
	have := map[model.AssignmentKey]bool{}
	for _, a := range base {
		a.GroupPeriods = sums[a.Key()]
		have[a.Key()] = true
		out = append(out, a)
	}
	for _, k := range extra {
		if !have[k] {
			out = append(out, model.Assignment{TeacherID: k.TeacherID, GradeID: k.GradeID, GroupPeriods: sums[k]})
		}
	}
	return out
}
