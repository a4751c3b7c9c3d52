// Package substitution records teacher absences and covers them with
// substitutes. It never changes the base timetable: a SubstitutionRecord is
// an overlay for one date, slot and section.
//
// Records are never deleted. A record that is superseded, by a new absence
// for the same period or by a manual reassignment, is archived and replaced
// by a fresh one.
package substitution

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/timetable/core/availability"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/events"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const component = "substitution"

// Assigner manages substitution records.
type Assigner struct {
	env *engine.Env
}

// New returns an assigner.
func New(env *engine.Env) *Assigner { return &Assigner{env: env} }

func inScope(sectionIDs []string) func(string) bool {
	if len(sectionIDs) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}

// Records returns the active records of date, optionally limited to sections.
func (a *Assigner) Records(date time.Time, sectionIDs ...string) []model.SubstitutionRecord {
	ok := inScope(sectionIDs)
	var out []model.SubstitutionRecord
	for _, r := range a.env.Grid.Substitutions() {
		if r.Active() && model.SameDate(r.Date, date) && ok(r.SectionID) {
			out = append(out, r)
		}
	}
	return out
}

// MarkAbsent opens one record per live period the teacher holds on date in
// the given sections (all sections when none are given). Periods already
// recorded for this teacher are skipped. Active records for the same period
// naming someone else are archived, as are records where the teacher was the
// substitute; the latter are reopened unassigned. It returns the new records.
func (a *Assigner) MarkAbsent(ctx context.Context, date time.Time, teacherID string, sectionIDs ...string) ([]model.SubstitutionRecord, error) {
	if _, ok := a.env.Dir.Teacher(teacherID); !ok {
		return nil, &model.ValidationError{Field: "teacher_id", Reason: fmt.Sprintf("unknown teacher %q", teacherID)}
	}
	if date.IsZero() {
		return nil, &model.ValidationError{Field: "date", Reason: "required"}
	}
	ok := inScope(sectionIDs)
	day := model.DayOf(date)

	type period struct{ slot, section string }
	active := map[period]model.SubstitutionRecord{}
	var reopen []model.SubstitutionRecord
	for _, r := range a.Records(date) {
		active[period{r.SlotID, r.SectionID}] = r
		if r.SubstituteTeacherID == teacherID && ok(r.SectionID) {
			reopen = append(reopen, r)
		}
	}

	var archived, created []model.SubstitutionRecord
	for _, e := range a.env.Grid.Entries(model.ModeLive, grid.Filter{TeacherID: teacherID, Day: day}) {
		if !ok(e.SectionID) || (e.Dated() && !model.SameDate(e.Date, date)) {
			continue
		}
		p := period{e.SlotID, e.SectionID}
		if prev, exists := active[p]; exists {
			if prev.AbsentTeacherID == teacherID {
				continue
			}
			prev.IsArchived = true
			archived = append(archived, prev)
		}
		rec := model.SubstitutionRecord{
			ID:              a.env.NewID(),
			Date:            date,
			SlotID:          e.SlotID,
			SectionID:       e.SectionID,
			Subject:         e.Subject,
			AbsentTeacherID: teacherID,
		}
		active[p] = rec
		created = append(created, rec)
	}
	for _, r := range reopen {
		r.IsArchived = true
		archived = append(archived, r)
		fresh := r
		fresh.ID = a.env.NewID()
		fresh.IsArchived = false
		fresh.SubstituteTeacherID = ""
		created = append(created, fresh)
	}
	if len(created) == 0 && len(archived) == 0 {
		return nil, nil
	}
	changed := append(append([]model.SubstitutionRecord{}, archived...), created...)
	if err := a.env.Commit(component, "upsert_substitutions", func() error {
		return a.env.Store.UpsertSubstitutions(ctx, changed...)
	}); err != nil {
		return nil, err
	}
	a.env.Grid.PutSubstitutions(changed...)
	a.env.Log.Infof("%s absent on %s: %d records opened, %d archived", teacherID, date.Format(time.DateOnly), len(created), len(archived))
	a.env.Emit(events.SubstitutionEvent{Action: "absent", Date: date, Created: len(created), Archived: len(archived)})
	return created, nil
}

// Load returns a teacher's weekly load for the week containing date: the
// assignment totals plus the active substitutions covered that week.
func (a *Assigner) Load(teacherID string, date time.Time) int {
	week := model.WeekStart(date)
	n := a.env.Grid.WeeklyLoad(teacherID)
	for _, r := range a.env.Grid.Substitutions() {
		if r.Assigned() && r.SubstituteTeacherID == teacherID && model.WeekStart(r.Date).Equal(week) {
			n++
		}
	}
	return n
}

type candidate struct {
	id   string
	load int
}

// Assign covers every unassigned active record of date in the given sections
// (all when none are given). Candidates are the teachers eligible for the
// section's wing-type, except the absentee and anyone absent that date.
// Among those under the weekly cap and free at the record's slot, the lowest
// load wins; ties keep directory order. Records with no taker are reported.
func (a *Assigner) Assign(ctx context.Context, date time.Time, sectionIDs ...string) (Report, error) {
	rep := Report{Date: date, Assigned: []Assigned{}, Unassigned: []Unassigned{}}
	records := a.Records(date, sectionIDs...)
	absent := map[string]bool{}
	for _, r := range a.Records(date) {
		absent[r.AbsentTeacherID] = true
	}
	occ := a.env.Oracle.Snapshot(availability.Scope{Mode: model.ModeLive, Date: date})
	capN := a.env.MaxWeeklyPeriods()
	loads := map[string]int{}
	load := func(id string) int {
		if n, ok := loads[id]; ok {
			return n
		}
		n := a.Load(id, date)
		loads[id] = n
		return n
	}

	var changed []model.SubstitutionRecord
	for _, r := range records {
		if r.SubstituteTeacherID != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		pick, reason := a.choose(r, absent, occ, capN, load)
		if pick == nil {
			rep.Unassigned = append(rep.Unassigned, Unassigned{Record: r, Reason: reason})
			continue
		}
		r.SubstituteTeacherID = pick.id
		occ.ReserveSubstitution(r)
		loads[pick.id] = pick.load + 1
		changed = append(changed, r)
		rep.Assigned = append(rep.Assigned, Assigned{RecordID: r.ID, TeacherID: pick.id, Load: pick.load})
	}

	if len(changed) > 0 {
		if err := a.env.Commit(component, "upsert_substitutions", func() error {
			return a.env.Store.UpsertSubstitutions(ctx, changed...)
		}); err != nil {
			return Report{}, err
		}
		a.env.Grid.PutSubstitutions(changed...)
	}
	substitutionsTotal.WithLabelValues("assigned").Add(float64(len(rep.Assigned)))
	substitutionsTotal.WithLabelValues("unassigned").Add(float64(len(rep.Unassigned)))
	if len(rep.Unassigned) > 0 {
		a.env.Log.Warnf("%s: %d substitutions left unassigned", date.Format(time.DateOnly), len(rep.Unassigned))
	}
	a.env.Emit(events.SubstitutionEvent{Action: "assign", Date: date, Assigned: len(rep.Assigned), Unassigned: len(rep.Unassigned)})
	return rep, nil
}

func (a *Assigner) choose(r model.SubstitutionRecord, absent map[string]bool, occ *availability.Occupancy, capN int, load func(string) int) (*candidate, string) {
	wt, err := directory.WingTypeOf(a.env.Dir, r.SectionID)
	if err != nil {
		return nil, ReasonNoEligible
	}
	var eligible, underCap []candidate
	for _, t := range a.env.Dir.Teachers() {
		if t.ID == r.AbsentTeacherID || absent[t.ID] || !a.env.Dir.Eligible(t.ID, wt) {
			continue
		}
		eligible = append(eligible, candidate{id: t.ID, load: load(t.ID)})
	}
	if len(eligible) == 0 {
		return nil, ReasonNoEligible
	}
	for _, c := range eligible {
		if c.load < capN {
			underCap = append(underCap, c)
		}
	}
	if len(underCap) == 0 {
		return nil, ReasonAtCap
	}
	var free []candidate
	for _, c := range underCap {
		if occ.IsFree(availability.Query{Kind: model.KindTeacher, ID: c.id, Day: r.Day(), SlotID: r.SlotID}) {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return nil, ReasonBusy
	}
	sort.SliceStable(free, func(i, j int) bool { return free[i].load < free[j].load })
	return &free[0], ""
}

// SetSubstitute assigns teacherID to a record by hand. The teacher must be
// eligible for the section's wing-type, under the weekly cap and free at the
// record's slot; a busy teacher yields a ConflictError. An already assigned
// record is archived and replaced by a new one naming the new substitute.
func (a *Assigner) SetSubstitute(ctx context.Context, recordID, teacherID string) (model.SubstitutionRecord, error) {
	r, ok := a.env.Grid.Substitution(recordID)
	if !ok {
		return model.SubstitutionRecord{}, fmt.Errorf("substitution %s: %w", recordID, model.ErrNotFound)
	}
	if !r.Active() {
		return model.SubstitutionRecord{}, &model.ValidationError{Field: "record_id", Reason: "record is archived"}
	}
	if _, ok := a.env.Dir.Teacher(teacherID); !ok {
		return model.SubstitutionRecord{}, &model.ValidationError{Field: "teacher_id", Reason: fmt.Sprintf("unknown teacher %q", teacherID)}
	}
	if teacherID == r.AbsentTeacherID {
		return model.SubstitutionRecord{}, &model.ValidationError{Field: "teacher_id", Reason: "substitute is the absent teacher"}
	}
	wt, err := directory.WingTypeOf(a.env.Dir, r.SectionID)
	if err != nil {
		return model.SubstitutionRecord{}, err
	}
	if !a.env.Dir.Eligible(teacherID, wt) {
		return model.SubstitutionRecord{}, &model.ValidationError{Field: "teacher_id", Reason: fmt.Sprintf("not eligible for %s sections", wt)}
	}
	if r.SubstituteTeacherID == teacherID {
		return r, nil
	}
	if a.Load(teacherID, r.Date) >= a.env.MaxWeeklyPeriods() {
		return model.SubstitutionRecord{}, &model.ValidationError{Field: "teacher_id", Reason: "weekly cap reached"}
	}
	q := availability.Query{Kind: model.KindTeacher, ID: teacherID, Day: r.Day(), SlotID: r.SlotID}
	if err := a.env.Oracle.Check(availability.Scope{Mode: model.ModeLive, Date: r.Date}, q); err != nil {
		return model.SubstitutionRecord{}, err
	}

	changed := []model.SubstitutionRecord{}
	next := r
	if r.SubstituteTeacherID != "" {
		old := r
		old.IsArchived = true
		changed = append(changed, old)
		next.ID = a.env.NewID()
	}
	next.SubstituteTeacherID = teacherID
	changed = append(changed, next)
	if err := a.env.Commit(component, "upsert_substitutions", func() error {
		return a.env.Store.UpsertSubstitutions(ctx, changed...)
	}); err != nil {
		return model.SubstitutionRecord{}, err
	}
	a.env.Grid.PutSubstitutions(changed...)
	substitutionsTotal.WithLabelValues("manual").Inc()
	a.env.Emit(events.SubstitutionEvent{Action: "set", Date: r.Date, Assigned: 1, Archived: len(changed) - 1})
	return next, nil
}

// Archive retires records. Archived and unknown ids are ignored.
func (a *Assigner) Archive(ctx context.Context, recordIDs ...string) (int, error) {
	var changed []model.SubstitutionRecord
	for _, id := range recordIDs {
		r, ok := a.env.Grid.Substitution(id)
		if !ok || !r.Active() {
			continue
		}
		r.IsArchived = true
		changed = append(changed, r)
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := a.env.Commit(component, "upsert_substitutions", func() error {
		return a.env.Store.UpsertSubstitutions(ctx, changed...)
	}); err != nil {
		return 0, err
	}
	a.env.Grid.PutSubstitutions(changed...)
	a.env.Emit(events.SubstitutionEvent{Action: "archive", Date: changed[0].Date, Archived: len(changed)})
	return len(changed), nil
}
