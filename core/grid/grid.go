package grid

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/timetable/core/model"
)

// Grid is the in-memory mirror of the durable store: two named entry stores
// (live and draft), substitution records, pool templates and assignments.
// Mutators are only called after the matching durable write succeeded.
type Grid struct {
	mu          sync.RWMutex
	entries     map[model.Mode]map[string]model.ScheduleEntry
	subs        map[string]model.SubstitutionRecord
	subOrder    []string
	blocks      map[string]model.CombinedBlock
	assignments map[model.AssignmentKey]model.Assignment
	asnOrder    []model.AssignmentKey
}

// New returns an empty grid.
func New() *Grid {
	return &Grid{
		entries: map[model.Mode]map[string]model.ScheduleEntry{
			model.ModeLive:  {},
			model.ModeDraft: {},
		},
		subs:        map[string]model.SubstitutionRecord{},
		blocks:      map[string]model.CombinedBlock{},
		assignments: map[model.AssignmentKey]model.Assignment{},
	}
}

// Load builds a grid from everything the store holds.
func Load(ctx context.Context, s Store) (*Grid, error) {
	g := New()
	for _, m := range []model.Mode{model.ModeLive, model.ModeDraft} {
		es, err := s.LoadEntries(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("load %s entries: %w", m, err)
		}
		g.ApplyEntries(m, nil, es)
	}
	subs, err := s.LoadSubstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load substitutions: %w", err)
	}
	g.PutSubstitutions(subs...)
	blocks, err := s.LoadBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	for _, b := range blocks {
		g.PutBlock(b)
	}
	as, err := s.LoadAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	g.PutAssignments(as...)
	return g, nil
}

// Entries returns the entries of mode matching f, sorted by day, slot,
// section and id.
func (g *Grid) Entries(mode model.Mode, f Filter) []model.ScheduleEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []model.ScheduleEntry
	for _, e := range g.entries[mode] {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	SortEntries(out)
	return out
}

// Entry returns one entry by id.
func (g *Grid) Entry(mode model.Mode, id string) (model.ScheduleEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[mode][id]
	return e, ok
}

// Len returns the number of entries held in mode.
func (g *Grid) Len(mode model.Mode) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries[mode])
}

// TouchedSections returns the sorted distinct section ids present in mode.
func (g *Grid) TouchedSections(mode model.Mode) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := map[string]bool{}
	for _, e := range g.entries[mode] {
		seen[e.SectionID] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ApplyEntries removes the given ids and then stores add in mode.
func (g *Grid) ApplyEntries(mode model.Mode, removeIDs []string, add []model.ScheduleEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.entries[mode]
	for _, id := range removeIDs {
		delete(m, id)
	}
	for _, e := range add {
		m[e.ID] = e
	}
}

// RemoveWhere deletes the entries of mode matching f and returns them.
func (g *Grid) RemoveWhere(mode model.Mode, f Filter) []model.ScheduleEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	var removed []model.ScheduleEntry
	for id, e := range g.entries[mode] {
		if f.Match(e) {
			removed = append(removed, e)
			delete(g.entries[mode], id)
		}
	}
	SortEntries(removed)
	return removed
}

// Promote mirrors EntryStore.Promote.
func (g *Grid) Promote(sectionIDs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	live := g.entries[model.ModeLive]
	drop := Filter{SectionIDs: sectionIDs}
	for id, e := range live {
		if len(sectionIDs) > 0 && drop.Match(e) {
			delete(live, id)
		}
	}
	for id, e := range g.entries[model.ModeDraft] {
		live[id] = e
	}
	g.entries[model.ModeDraft] = map[string]model.ScheduleEntry{}
}

// Substitutions returns the records in insertion order.
func (g *Grid) Substitutions() []model.SubstitutionRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.SubstitutionRecord, 0, len(g.subOrder))
	for _, id := range g.subOrder {
		out = append(out, g.subs[id])
	}
	return out
}

// Substitution returns one record by id.
func (g *Grid) Substitution(id string) (model.SubstitutionRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.subs[id]
	return r, ok
}

// PutSubstitutions inserts or replaces records.
func (g *Grid) PutSubstitutions(recs ...model.SubstitutionRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range recs {
		if _, ok := g.subs[r.ID]; !ok {
			g.subOrder = append(g.subOrder, r.ID)
		}
		g.subs[r.ID] = r
	}
}

// Blocks returns the templates sorted by grade, title and id.
func (g *Grid) Blocks() []model.CombinedBlock {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.CombinedBlock, 0, len(g.blocks))
	for _, b := range g.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GradeID != out[j].GradeID {
			return out[i].GradeID < out[j].GradeID
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GradeBlocks returns the templates of one grade.
func (g *Grid) GradeBlocks(gradeID string) []model.CombinedBlock {
	var out []model.CombinedBlock
	for _, b := range g.Blocks() {
		if b.GradeID == gradeID {
			out = append(out, b)
		}
	}
	return out
}

// Block returns one template by id.
func (g *Grid) Block(id string) (model.CombinedBlock, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.blocks[id]
	return b, ok
}

// PutBlock inserts or replaces a template.
func (g *Grid) PutBlock(b model.CombinedBlock) {
	g.mu.Lock()
	g.blocks[b.ID] = b
	g.mu.Unlock()
}

// DeleteBlock removes a template.
func (g *Grid) DeleteBlock(id string) {
	g.mu.Lock()
	delete(g.blocks, id)
	g.mu.Unlock()
}

// Assignments returns all assignments in insertion order.
func (g *Grid) Assignments() []model.Assignment {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Assignment, 0, len(g.asnOrder))
	for _, k := range g.asnOrder {
		out = append(out, g.assignments[k])
	}
	return out
}

// Assignment returns the assignment of a teacher in a grade.
func (g *Grid) Assignment(teacherID, gradeID string) (model.Assignment, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a, ok := g.assignments[model.AssignmentKey{TeacherID: teacherID, GradeID: gradeID}]
	return a, ok
}

// PutAssignments inserts or replaces assignments.
func (g *Grid) PutAssignments(as ...model.Assignment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range as {
		k := a.Key()
		if _, ok := g.assignments[k]; !ok {
			g.asnOrder = append(g.asnOrder, k)
		}
		g.assignments[k] = a
	}
}

// WeeklyLoad sums a teacher's assignment totals across grades.
func (g *Grid) WeeklyLoad(teacherID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for k, a := range g.assignments {
		if k.TeacherID == teacherID {
			n += a.Total()
		}
	}
	return n
}

// SortEntries orders entries by day, slot, section and id.
func SortEntries(es []model.ScheduleEntry) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.SlotID != b.SlotID {
			return a.SlotID < b.SlotID
		}
		if a.SectionID != b.SectionID {
			return a.SectionID < b.SectionID
		}
		return a.ID < b.ID
	})
}
