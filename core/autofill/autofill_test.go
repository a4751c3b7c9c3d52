package autofill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/autofill"
	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/internal/schooltest"
	"github.com/kilianp07/timetable/internal/storetest"
)

var ctx = context.Background()

func TestFillPlacesBlockAcrossSections(t *testing.T) {
	sf := schooltest.School()
	sf.Blocks = []model.CombinedBlock{{
		ID: "b1", Title: "Electives", Heading: "Pool", GradeID: "g1",
		SectionIDs: []string{"s1", "s2"}, WeeklyPeriods: 2,
		Allocations: []model.Allocation{{TeacherID: "tX", Subject: "Art", Room: "Lab"}},
	}}
	f := schooltest.New(t, sf)
	eng := autofill.New(f.Env)

	rep, err := eng.Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, "IX", rep.GradeName)
	assert.Equal(t, 4, rep.TotalRequested)
	assert.Equal(t, 4, rep.Placed)
	assert.True(t, rep.Complete())

	entries := f.Grid.Entries(model.ModeDraft, grid.Filter{})
	require.Len(t, entries, 4)
	cells := map[model.Cell]int{}
	perSection := map[string]int{}
	for _, e := range entries {
		assert.Equal(t, "b1", e.BlockID)
		assert.Equal(t, "Electives", e.BlockName)
		assert.Equal(t, "tX", e.TeacherID)
		cells[e.Cell()]++
		perSection[e.SectionID]++
	}
	assert.Len(t, cells, 2)
	assert.Equal(t, map[string]int{"s1": 2, "s2": 2}, perSection)
	assert.Contains(t, cells, model.Cell{Day: model.Monday, SlotID: "p1"})
	assert.Contains(t, cells, model.Cell{Day: model.Monday, SlotID: "p2"})
	assert.Empty(t, availability.New(f.Grid).Violations(availability.Scope{Mode: model.ModeDraft}))
	assert.Equal(t, entries, f.Stored(t, model.ModeDraft))
}

func TestFillBlockUsesGroupPeriodsWhenUnset(t *testing.T) {
	sf := schooltest.School()
	sf.Blocks = []model.CombinedBlock{{
		ID: "b1", Title: "Electives", Heading: "Pool", GradeID: "g1",
		SectionIDs:  []string{"s1"},
		Allocations: []model.Allocation{{TeacherID: "tA", Subject: "Art"}},
	}}
	f := schooltest.New(t, sf)
	stored := model.Assignment{TeacherID: "tA", GradeID: "g1", GroupPeriods: 3}
	require.NoError(t, f.Store.UpsertAssignments(ctx, stored))
	f.Grid.PutAssignments(stored)

	rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Placed)
}

func TestFillSpreadsSubjectsAcrossDays(t *testing.T) {
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 3}}},
		{TeacherID: "tB", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Physics", Periods: 2, Room: "Lab"}}},
	}
	f := schooltest.New(t, sf)

	rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Placed)

	days := map[string]map[model.Day]int{}
	for _, e := range f.Grid.Entries(model.ModeDraft, grid.Filter{}) {
		if days[e.Subject] == nil {
			days[e.Subject] = map[model.Day]int{}
		}
		days[e.Subject][e.Day]++
		assert.NotEqual(t, "brk", e.SlotID)
		if e.Subject == "Physics" {
			assert.Equal(t, "Lab", e.Room)
		} else {
			assert.Equal(t, "R1", e.Room, "home room by default")
		}
	}
	assert.Len(t, days["Maths"], 3)
	assert.Len(t, days["Physics"], 2)
}

func TestFillFallsBackAndReportsSkipped(t *testing.T) {
	sf := schooltest.School()
	// 3 days x 3 teaching slots = 9 cells.
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 10}}},
	}
	f := schooltest.New(t, sf)

	rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, 10, rep.TotalRequested)
	assert.Equal(t, 9, rep.Placed)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, autofill.ReasonNoSlot, rep.Skipped[0].Reason)
	assert.Equal(t, "s1", rep.Skipped[0].SectionID)
}

func TestFillNeverDoubleBooksTeachers(t *testing.T) {
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{
			{SectionID: "s1", Subject: "Maths", Periods: 4},
			{SectionID: "s2", Subject: "Maths", Periods: 4},
			{SectionID: "s3", Subject: "Maths", Periods: 4},
		}},
		{TeacherID: "tB", GradeID: "g1", Loads: []model.Load{
			{SectionID: "s1", Subject: "Physics", Periods: 3},
			{SectionID: "s2", Subject: "Physics", Periods: 3},
		}},
	}
	sf.Blocks = []model.CombinedBlock{{
		ID: "b1", Title: "Arts", Heading: "Pool", GradeID: "g1",
		SectionIDs: []string{"s1", "s2", "s3"}, WeeklyPeriods: 2,
		Allocations: []model.Allocation{{TeacherID: "tC", Subject: "Art"}, {TeacherID: "tD", Subject: "Music"}},
	}}
	f := schooltest.New(t, sf)
	f.Put(t, model.ModeLive, schooltest.Entry("x", model.Monday, "p3", "s4", "tA", "Maths"))

	rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, 24, rep.TotalRequested)
	assert.Empty(t, availability.New(f.Grid).Violations(availability.Scope{Mode: model.ModeDraft}))
	for _, e := range f.Grid.Entries(model.ModeDraft, grid.Filter{TeacherID: "tA"}) {
		assert.False(t, e.Day == model.Monday && e.SlotID == "p3", "tA is busy in X-A")
	}
}

func TestFillPersistenceFailureLeavesGridUntouched(t *testing.T) {
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 2}}},
	}
	flaky := storetest.NewFlaky(grid.NewMemoryStore(), "BulkInsert")
	f := schooltest.NewWithStore(t, sf, flaky)

	_, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.Error(t, err)
	assert.True(t, model.IsPersistence(err))
	assert.ErrorIs(t, err, storetest.ErrInjected)
	assert.Equal(t, 0, f.Grid.Len(model.ModeDraft))
}

func TestFillHonoursCancellation(t *testing.T) {
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 2}}},
	}
	f := schooltest.New(t, sf)
	cctx, cancel := context.WithCancel(ctx)
	cancel()

	_, err := autofill.New(f.Env).Fill(cctx, model.ModeDraft, "g1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.Grid.Len(model.ModeDraft))
}

func TestFillUnknownGrade(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	_, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "nope")
	assert.True(t, errors.Is(err, model.ErrUnknownGrade))
}

func TestClearGrade(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	dated := schooltest.Entry("d", model.Tuesday, "p2", "s1", "tB", "Physics")
	dated.Date = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	f.Put(t, model.ModeDraft,
		schooltest.Entry("a", model.Monday, "p1", "s1", "tA", "Maths"),
		schooltest.Entry("b", model.Monday, "p1", "s2", "tB", "Maths"),
		schooltest.Entry("c", model.Monday, "p1", "s4", "tC", "Maths"),
		dated,
	)
	f.Put(t, model.ModeLive, schooltest.Entry("l", model.Monday, "p1", "s1", "tA", "Maths"))

	n, err := autofill.New(f.Env).ClearGrade(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "dated entries of the grade are removed too")
	assert.Equal(t, 1, f.Grid.Len(model.ModeDraft))
	assert.Len(t, f.Stored(t, model.ModeDraft), 1)
	assert.Equal(t, 1, f.Grid.Len(model.ModeLive))
}

func TestFillOnlySeesSubstitutionsOfTheCurrentWeek(t *testing.T) {
	sf := schooltest.School()
	sf.Days = []model.Day{model.Monday}
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 3}}},
	}
	first := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	cover := func(id string, weeks int, slot string) model.SubstitutionRecord {
		return model.SubstitutionRecord{
			ID: id, Date: first.AddDate(0, 0, 7*weeks), SlotID: slot, SectionID: "s4",
			AbsentTeacherID: "tC", SubstituteTeacherID: "tA",
		}
	}
	cases := []struct {
		name   string
		now    time.Time
		placed int
	}{
		{"a year later", time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), 3},
		{"during the second cover", first.AddDate(0, 0, 9), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := schooltest.New(t, sf)
			f.PutSubstitutions(t, cover("r1", 0, "p1"), cover("r2", 1, "p2"), cover("r3", 2, "p3"))
			f.Env.Now = func() time.Time { return tc.now }

			rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
			require.NoError(t, err)
			assert.Equal(t, tc.placed, rep.Placed)
			assert.Len(t, rep.Skipped, 3-tc.placed)
		})
	}
}

func TestFillShadowsSectionsItReplaces(t *testing.T) {
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 1}}},
	}
	f := schooltest.New(t, sf)
	f.Put(t, model.ModeLive, schooltest.Entry("old", model.Monday, "p1", "s1", "tA", "Maths"))

	rep, err := autofill.New(f.Env).Fill(ctx, model.ModeDraft, "g1")
	require.NoError(t, err)
	require.Equal(t, 1, rep.Placed)
	assert.Equal(t, model.Cell{Day: model.Monday, SlotID: "p1"}, rep.Entries[0].Cell(), "s1's live entries are replaced on publish")
}
