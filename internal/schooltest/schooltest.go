// Package schooltest builds small schools and engine environments for tests.
package schooltest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/blockpool"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

// School returns a two-wing school:
//
//   - secondary grade g1 (IX) with sections s1, s2, s3 and grade g2 (X) with s4
//   - primary grade gp (II) with section pa
//   - days Monday to Wednesday
//   - secondary slots p1, p2, brk (break), p3; primary slots q1, q2
//   - secondary teachers tA, tB, tC, tD; primary teacher tP; tX teaches both
func School() directory.SchoolFile {
	return directory.SchoolFile{
		Days:             []model.Day{model.Monday, model.Tuesday, model.Wednesday},
		MaxWeeklyPeriods: 35,
		Wings: []model.Wing{
			{ID: "sec", Name: "Senior", Type: model.WingSecondary},
			{ID: "pri", Name: "Junior", Type: model.WingPrimary},
		},
		Grades: []model.Grade{
			{ID: "g1", Name: "IX", WingID: "sec"},
			{ID: "g2", Name: "X", WingID: "sec"},
			{ID: "gp", Name: "II", WingID: "pri"},
		},
		Sections: []model.Section{
			{ID: "s1", Name: "IX-A", GradeID: "g1", HomeRoom: "R1"},
			{ID: "s2", Name: "IX-B", GradeID: "g1", HomeRoom: "R2"},
			{ID: "s3", Name: "IX-C", GradeID: "g1", HomeRoom: "R3"},
			{ID: "s4", Name: "X-A", GradeID: "g2", HomeRoom: "R4"},
			{ID: "pa", Name: "II-A", GradeID: "gp", HomeRoom: "P1"},
		},
		Rooms:    []model.Room{{Name: "R1"}, {Name: "R2"}, {Name: "R3"}, {Name: "R4"}, {Name: "P1"}, {Name: "Lab"}},
		Subjects: []string{"Maths", "Physics", "Art", "Music"},
		Slots: map[model.WingType][]model.TimeSlot{
			model.WingSecondary: {
				{ID: "p1", Label: "1", Start: "08:00", End: "08:45"},
				{ID: "p2", Label: "2", Start: "08:45", End: "09:30"},
				{ID: "brk", Label: "Break", Start: "09:30", End: "09:45", IsBreak: true},
				{ID: "p3", Label: "3", Start: "09:45", End: "10:30"},
			},
			model.WingPrimary: {
				{ID: "q1", Label: "1", Start: "08:30", End: "09:10"},
				{ID: "q2", Label: "2", Start: "09:10", End: "09:50"},
			},
		},
		RoleWings: map[string][]model.WingType{
			"SENIOR": {model.WingSecondary},
			"JUNIOR": {model.WingPrimary},
		},
		Teachers: []model.Teacher{
			{ID: "tA", Name: "Ada", PrimaryRole: "SENIOR"},
			{ID: "tB", Name: "Ben", PrimaryRole: "SENIOR"},
			{ID: "tC", Name: "Cleo", PrimaryRole: "SENIOR"},
			{ID: "tD", Name: "Dev", PrimaryRole: "SENIOR"},
			{ID: "tP", Name: "Pia", PrimaryRole: "JUNIOR"},
			{ID: "tX", Name: "Xan", PrimaryRole: "JUNIOR", SecondaryRoles: []string{"SENIOR"}},
		},
	}
}

// Fixture is an engine environment over a memory store.
type Fixture struct {
	Dir   *directory.Static
	Store grid.Store
	Grid  *grid.Grid
	Env   *engine.Env
	next  int
}

// New builds a fixture for sf. Assignments and blocks of sf are seeded into
// the store and the grid, with group periods derived from the blocks. Ids
// are deterministic: e1, e2, ...
func New(t testing.TB, sf directory.SchoolFile) *Fixture {
	t.Helper()
	return NewWithStore(t, sf, grid.NewMemoryStore())
}

// NewWithStore is New over a caller-provided store.
func NewWithStore(t testing.TB, sf directory.SchoolFile, s grid.Store) *Fixture {
	t.Helper()
	dir, err := directory.NewStatic(sf)
	require.NoError(t, err)
	ctx := context.Background()
	if as := blockpool.GroupTotals(sf.Assignments, sf.Blocks); len(as) > 0 {
		require.NoError(t, s.UpsertAssignments(ctx, as...))
	}
	for _, b := range sf.Blocks {
		require.NoError(t, s.SaveBlock(ctx, b, nil))
	}
	g, err := grid.Load(ctx, s)
	require.NoError(t, err)
	f := &Fixture{Dir: dir, Store: s, Grid: g}
	f.Env = engine.New(g, s, dir)
	f.Env.NewID = f.id
	return f
}

func (f *Fixture) id() string {
	f.next++
	return fmt.Sprintf("e%d", f.next)
}

// Put writes entries to the store and the grid.
func (f *Fixture) Put(t testing.TB, mode model.Mode, entries ...model.ScheduleEntry) {
	t.Helper()
	require.NoError(t, f.Store.Upsert(context.Background(), mode, entries...))
	f.Grid.ApplyEntries(mode, nil, entries)
}

// PutSubstitutions writes records to the store and the grid.
func (f *Fixture) PutSubstitutions(t testing.TB, recs ...model.SubstitutionRecord) {
	t.Helper()
	require.NoError(t, f.Store.UpsertSubstitutions(context.Background(), recs...))
	f.Grid.PutSubstitutions(recs...)
}

// Stored returns what the durable store holds for mode.
func (f *Fixture) Stored(t testing.TB, mode model.Mode) []model.ScheduleEntry {
	t.Helper()
	es, err := f.Store.LoadEntries(context.Background(), mode)
	require.NoError(t, err)
	grid.SortEntries(es)
	return es
}

// Entry is a shorthand constructor for test entries.
func Entry(id string, day model.Day, slot, section, teacher, subject string) model.ScheduleEntry {
	return model.ScheduleEntry{ID: id, Day: day, SlotID: slot, SectionID: section, TeacherID: teacher, Subject: subject}
}
