package model

// Allocation is one teacher/subject/room line of a pool template.
type Allocation struct {
	TeacherID string `json:"teacher_id" yaml:"teacher_id" validate:"required"`
	Subject   string `json:"subject" yaml:"subject" validate:"required"`
	Room      string `json:"room,omitempty" yaml:"room,omitempty"`
}

// CombinedBlock is a parallel pool template: every section of the block
// occupies the same cell at once.
type CombinedBlock struct {
	ID            string       `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title" validate:"required"`
	Heading       string       `json:"heading" yaml:"heading" validate:"required"`
	GradeID       string       `json:"grade_id" yaml:"grade_id" validate:"required"`
	SectionIDs    []string     `json:"section_ids" yaml:"section_ids" validate:"required,min=1,dive,required"`
	WeeklyPeriods int          `json:"weekly_periods" yaml:"weekly_periods" validate:"gte=0"`
	Allocations   []Allocation `json:"allocations" yaml:"allocations" validate:"required,min=1,dive"`
}

// Pairing is one section matched with the allocation that teaches it.
type Pairing struct {
	SectionID  string
	Allocation Allocation
}

// Pairings matches sections to allocations round-robin: section i receives
// allocation i mod len(Allocations). Allocations beyond the section count are
// not materialised as entries.
func (b CombinedBlock) Pairings() []Pairing {
	if len(b.Allocations) == 0 {
		return nil
	}
	out := make([]Pairing, 0, len(b.SectionIDs))
	for i, sid := range b.SectionIDs {
		out = append(out, Pairing{SectionID: sid, Allocation: b.Allocations[i%len(b.Allocations)]})
	}
	return out
}

// Entries materialises the block at a cell. newID is called once per entry.
func (b CombinedBlock) Entries(c Cell, newID func() string) []ScheduleEntry {
	pairs := b.Pairings()
	out := make([]ScheduleEntry, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ScheduleEntry{
			ID:        newID(),
			Day:       c.Day,
			SlotID:    c.SlotID,
			SectionID: p.SectionID,
			TeacherID: p.Allocation.TeacherID,
			Subject:   p.Allocation.Subject,
			Room:      p.Allocation.Room,
			BlockID:   b.ID,
			BlockName: b.Title,
		})
	}
	return out
}

// TeacherIDs lists the distinct allocation teachers in order.
func (b CombinedBlock) TeacherIDs() []string {
	seen := make(map[string]bool, len(b.Allocations))
	var out []string
	for _, a := range b.Allocations {
		if a.TeacherID == "" || seen[a.TeacherID] {
			continue
		}
		seen[a.TeacherID] = true
		out = append(out, a.TeacherID)
	}
	return out
}

// HasTeacher reports whether any allocation names the teacher.
func (b CombinedBlock) HasTeacher(id string) bool {
	for _, a := range b.Allocations {
		if a.TeacherID == id {
			return true
		}
	}
	return false
}

// Load is a teacher's weekly period count for one subject in one section.
type Load struct {
	SectionID string `json:"section_id" yaml:"section_id"`
	Subject   string `json:"subject" yaml:"subject"`
	Periods   int    `json:"periods" yaml:"periods"`
	Room      string `json:"room,omitempty" yaml:"room,omitempty"`
}

// AssignmentKey identifies an Assignment.
type AssignmentKey struct {
	TeacherID string
	GradeID   string
}

// Assignment holds a teacher's base loads in a grade and the derived
// GroupPeriods contributed by block memberships.
type Assignment struct {
	TeacherID    string `json:"teacher_id" yaml:"teacher_id"`
	GradeID      string `json:"grade_id" yaml:"grade_id"`
	Loads        []Load `json:"loads" yaml:"loads"`
	GroupPeriods int    `json:"group_periods" yaml:"group_periods"`
}

// Key returns the assignment's identity.
func (a Assignment) Key() AssignmentKey { return AssignmentKey{TeacherID: a.TeacherID, GradeID: a.GradeID} }

// BasePeriods sums the individual loads.
func (a Assignment) BasePeriods() int {
	n := 0
	for _, l := range a.Loads {
		n += l.Periods
	}
	return n
}

// Total is the weekly total including group periods.
func (a Assignment) Total() int { return a.BasePeriods() + a.GroupPeriods }
