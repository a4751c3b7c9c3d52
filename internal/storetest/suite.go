package storetest

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

// Run exercises the Store contract against stores returned by newStore.
// Each subtest receives a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) grid.Store) {
	t.Helper()
	ctx := context.Background()
	entry := func(id, section string, day model.Day, slot string) model.ScheduleEntry {
		return model.ScheduleEntry{ID: id, Day: day, SlotID: slot, SectionID: section, TeacherID: "t-" + section, Subject: "Maths", Room: "R1"}
	}

	t.Run("modes are disjoint", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.BulkInsert(ctx, model.ModeLive, []model.ScheduleEntry{entry("a", "s1", model.Monday, "p1")}))
		require.NoError(t, s.Upsert(ctx, model.ModeDraft, entry("b", "s1", model.Monday, "p2")))
		live, err := s.LoadEntries(ctx, model.ModeLive)
		require.NoError(t, err)
		draft, err := s.LoadEntries(ctx, model.ModeDraft)
		require.NoError(t, err)
		require.Len(t, live, 1)
		require.Len(t, draft, 1)
		assert.Equal(t, "a", live[0].ID)
		assert.Equal(t, entry("b", "s1", model.Monday, "p2"), draft[0])
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		s := newStore(t)
		e := entry("a", "s1", model.Monday, "p1")
		require.NoError(t, s.Upsert(ctx, model.ModeLive, e))
		e.Room = "Lab"
		e.BlockID, e.BlockName = "b1", "Pool"
		e.Date = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.Upsert(ctx, model.ModeLive, e))
		live, err := s.LoadEntries(ctx, model.ModeLive)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, "Lab", live[0].Room)
		assert.Equal(t, "b1", live[0].BlockID)
		assert.True(t, model.SameDate(e.Date, live[0].Date))
	})

	t.Run("delete where and replace", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.BulkInsert(ctx, model.ModeDraft, []model.ScheduleEntry{
			entry("a", "s1", model.Monday, "p1"),
			entry("b", "s2", model.Monday, "p1"),
			entry("c", "s1", model.Tuesday, "p1"),
		}))
		require.NoError(t, s.DeleteWhere(ctx, model.ModeDraft, grid.Filter{SectionIDs: []string{"s1"}, Day: model.Monday}))
		require.Equal(t, []string{"b", "c"}, ids(t, s, model.ModeDraft))

		require.NoError(t, s.Replace(ctx, model.ModeDraft, grid.ByIDs("b"), []model.ScheduleEntry{entry("d", "s2", model.Friday, "p3")}))
		require.Equal(t, []string{"c", "d"}, ids(t, s, model.ModeDraft))
		require.Empty(t, ids(t, s, model.ModeLive))
	})

	t.Run("promote", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.BulkInsert(ctx, model.ModeLive, []model.ScheduleEntry{
			entry("l1", "s1", model.Monday, "p1"),
			entry("l3", "s3", model.Monday, "p1"),
		}))
		require.NoError(t, s.BulkInsert(ctx, model.ModeDraft, []model.ScheduleEntry{
			entry("d1", "s1", model.Tuesday, "p1"),
			entry("d2", "s2", model.Tuesday, "p1"),
		}))
		require.NoError(t, s.Promote(ctx, []string{"s1", "s2"}))
		assert.Equal(t, []string{"d1", "d2", "l3"}, ids(t, s, model.ModeLive))
		assert.Empty(t, ids(t, s, model.ModeDraft))
	})

	t.Run("substitutions keep order", func(t *testing.T) {
		s := newStore(t)
		d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
		r1 := model.SubstitutionRecord{ID: "r1", Date: d, SlotID: "p1", SectionID: "s1", AbsentTeacherID: "t1"}
		r2 := model.SubstitutionRecord{ID: "r2", Date: d, SlotID: "p2", SectionID: "s1", AbsentTeacherID: "t1"}
		require.NoError(t, s.UpsertSubstitutions(ctx, r1, r2))
		r1.SubstituteTeacherID = "t9"
		r1.IsArchived = true
		require.NoError(t, s.UpsertSubstitutions(ctx, r1))
		recs, err := s.LoadSubstitutions(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
		assert.Equal(t, "t9", recs[0].SubstituteTeacherID)
		assert.True(t, recs[0].IsArchived)
		assert.True(t, model.SameDate(d, recs[1].Date))
	})

	t.Run("blocks and assignments", func(t *testing.T) {
		s := newStore(t)
		b := model.CombinedBlock{
			ID: "b1", Title: "Pool", Heading: "Electives", GradeID: "g9",
			SectionIDs: []string{"s1", "s2"}, WeeklyPeriods: 2,
			Allocations: []model.Allocation{{TeacherID: "t1", Subject: "Art", Room: "R2"}},
		}
		a := model.Assignment{TeacherID: "t1", GradeID: "g9", GroupPeriods: 2, Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 4}}}
		require.NoError(t, s.SaveBlock(ctx, b, []model.Assignment{a}))
		blocks, err := s.LoadBlocks(ctx)
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, b, blocks[0])
		as, err := s.LoadAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, as, 1)
		assert.Equal(t, 6, as[0].Total())

		a.GroupPeriods = 0
		require.NoError(t, s.DeleteBlock(ctx, "b1", []model.Assignment{a}))
		blocks, err = s.LoadBlocks(ctx)
		require.NoError(t, err)
		assert.Empty(t, blocks)
		as, err = s.LoadAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, as, 1)
		assert.Equal(t, 0, as[0].GroupPeriods)

		require.NoError(t, s.UpsertAssignments(ctx, model.Assignment{TeacherID: "t2", GradeID: "g9"}))
		as, err = s.LoadAssignments(ctx)
		require.NoError(t, err)
		assert.Len(t, as, 2)
	})
}

func ids(t *testing.T, s grid.Store, mode model.Mode) []string {
	t.Helper()
	es, err := s.LoadEntries(context.Background(), mode)
	require.NoError(t, err)
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	sort.Strings(out)
	return out
}
