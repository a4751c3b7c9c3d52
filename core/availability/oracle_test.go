package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/internal/schooltest"
)

var (
	live  = availability.Scope{Mode: model.ModeLive}
	draft = availability.Scope{Mode: model.ModeDraft}
)

func teacherAt(id string, d model.Day, slot string) availability.Query {
	return availability.Query{Kind: model.KindTeacher, ID: id, Day: d, SlotID: slot}
}

func TestIsFreeByKind(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	e := schooltest.Entry("a", model.Monday, "p1", "s1", "tA", "Maths")
	e.Room = "Lab"
	f.Put(t, model.ModeLive, e)
	o := availability.New(f.Grid)

	cases := []struct {
		name string
		q    availability.Query
		want bool
	}{
		{"section busy", availability.Query{Kind: model.KindSection, ID: "s1", Day: model.Monday, SlotID: "p1"}, false},
		{"teacher busy", teacherAt("tA", model.Monday, "p1"), false},
		{"room busy", availability.Query{Kind: model.KindRoom, ID: "Lab", Day: model.Monday, SlotID: "p1"}, false},
		{"other slot", teacherAt("tA", model.Monday, "p2"), true},
		{"other day", teacherAt("tA", model.Tuesday, "p1"), true},
		{"other teacher", teacherAt("tB", model.Monday, "p1"), true},
		{"excluded entry", availability.Query{Kind: model.KindTeacher, ID: "tA", Day: model.Monday, SlotID: "p1", ExcludeEntryID: "a"}, true},
		{"empty id", availability.Query{Kind: model.KindRoom, Day: model.Monday, SlotID: "p1"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, o.IsFree(live, tc.q))
		})
	}
}

func TestDraftSeesUnshadowedLive(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	f.Put(t, model.ModeLive,
		schooltest.Entry("l1", model.Monday, "p1", "s1", "tA", "Maths"),
		schooltest.Entry("l2", model.Monday, "p2", "s2", "tB", "Maths"),
	)
	f.Put(t, model.ModeDraft, schooltest.Entry("d1", model.Tuesday, "p1", "s2", "tC", "Art"))
	o := availability.New(f.Grid)

	assert.False(t, o.IsFree(draft, teacherAt("tA", model.Monday, "p1")), "live entry of unshadowed section counts")
	assert.True(t, o.IsFree(draft, teacherAt("tB", model.Monday, "p2")), "s2 is shadowed by the draft")
	assert.False(t, o.IsFree(draft, teacherAt("tC", model.Tuesday, "p1")))
	assert.True(t, o.IsFree(live, teacherAt("tC", model.Tuesday, "p1")), "live scope ignores the draft")

	declared := availability.Scope{Mode: model.ModeDraft, Shadow: []string{"s1"}}
	assert.True(t, o.IsFree(declared, teacherAt("tA", model.Monday, "p1")))
}

func TestSubstitutesOccupyTeachers(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	nextMonday := monday.AddDate(0, 0, 7)
	f.PutSubstitutions(t,
		model.SubstitutionRecord{ID: "r1", Date: monday, SlotID: "p1", SectionID: "s1", AbsentTeacherID: "tA", SubstituteTeacherID: "tB"},
		model.SubstitutionRecord{ID: "r2", Date: monday, SlotID: "p2", SectionID: "s1", AbsentTeacherID: "tA", SubstituteTeacherID: "tC", IsArchived: true},
		model.SubstitutionRecord{ID: "r3", Date: monday, SlotID: "p3", SectionID: "s1", AbsentTeacherID: "tA"},
	)
	o := availability.New(f.Grid)

	assert.True(t, o.IsFree(live, teacherAt("tB", model.Monday, "p1")), "the weekly grid ignores dated overlays")
	assert.False(t, o.IsFree(availability.Scope{Week: monday.AddDate(0, 0, 3)}, teacherAt("tB", model.Monday, "p1")), "weekday equivalent within the week")
	assert.True(t, o.IsFree(availability.Scope{Week: nextMonday}, teacherAt("tB", model.Monday, "p1")), "other weeks do not count")
	assert.False(t, o.IsFree(availability.Scope{Date: monday}, teacherAt("tB", model.Monday, "p1")))
	assert.True(t, o.IsFree(availability.Scope{Date: nextMonday}, teacherAt("tB", model.Monday, "p1")), "other dates do not count")
	assert.True(t, o.IsFree(availability.Scope{Date: monday}, teacherAt("tC", model.Monday, "p2")), "archived records do not count")
	assert.True(t, o.IsFree(live, availability.Query{Kind: model.KindSection, ID: "s1", Day: model.Monday, SlotID: "p3"}))
}

func TestBlockGroupSharesTeacher(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	a := schooltest.Entry("a", model.Monday, "p1", "s1", "tA", "Art")
	b := schooltest.Entry("b", model.Monday, "p1", "s2", "tA", "Art")
	a.BlockID, b.BlockID = "pool", "pool"
	f.Put(t, model.ModeLive, a, b)
	o := availability.New(f.Grid)

	assert.Empty(t, o.Violations(live))
	q := teacherAt("tA", model.Monday, "p1")
	assert.False(t, o.IsFree(live, q))
	q.BlockID = "pool"
	assert.True(t, o.IsFree(live, q))

	f.Put(t, model.ModeLive, schooltest.Entry("c", model.Monday, "p1", "s3", "tA", "Maths"))
	v := o.Violations(live)
	assert.Len(t, v, 1)
	assert.Equal(t, model.ConflictError{Kind: model.KindTeacher, ID: "tA", Day: model.Monday, SlotID: "p1"}, v[0])
}

func TestOccupancyReserveRelease(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	o := availability.New(f.Grid)
	occ := o.Snapshot(live)
	e := schooltest.Entry("x", model.Wednesday, "p3", "s4", "tD", "Music")
	for _, q := range availability.EntryQueries(e) {
		assert.True(t, occ.IsFree(q))
	}
	occ.Reserve(e)
	assert.False(t, occ.IsFree(teacherAt("tD", model.Wednesday, "p3")))
	assert.Equal(t, []string{"x"}, occ.Holders(teacherAt("tD", model.Wednesday, "p3")))
	occ.Release(e)
	assert.True(t, occ.IsFree(teacherAt("tD", model.Wednesday, "p3")))
	assert.True(t, o.IsFree(live, teacherAt("tD", model.Wednesday, "p3")), "snapshots never touch the grid")
}

func TestCheckReturnsConflict(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	f.Put(t, model.ModeLive, schooltest.Entry("a", model.Monday, "p1", "s1", "tA", "Maths"))
	o := availability.New(f.Grid)
	err := o.Check(live, teacherAt("tB", model.Monday, "p1"), teacherAt("tA", model.Monday, "p1"))
	var ce *model.ConflictError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, "tA", ce.ID)
	assert.NoError(t, o.Check(live, teacherAt("tB", model.Monday, "p1")))
	assert.True(t, o.AllFree(live, teacherAt("tB", model.Monday, "p1")))
}

func TestDatedEntriesOnlyCountInTheirWeek(t *testing.T) {
	f := schooltest.New(t, schooltest.School())
	old := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	cover := schooltest.Entry("cover", model.Monday, "p1", "s1", "tA", "Maths")
	cover.Date = old
	f.Put(t, model.ModeLive, cover)
	o := availability.New(f.Grid)

	assert.True(t, o.IsFree(availability.Scope{Week: old.AddDate(1, 0, 0)}, teacherAt("tA", model.Monday, "p1")))
	assert.False(t, o.IsFree(availability.Scope{Week: old}, teacherAt("tA", model.Monday, "p1")))
	assert.False(t, o.IsFree(availability.Scope{Date: old}, teacherAt("tA", model.Monday, "p1")))
	assert.Empty(t, o.Violations(live))
}
