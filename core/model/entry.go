package model

import "time"

// Mode addresses one of the two grid stores.
type Mode int

const (
	ModeLive Mode = iota
	ModeDraft
)

func (m Mode) String() string {
	if m == ModeDraft {
		return "draft"
	}
	return "live"
}

// ParseMode maps "draft" and "live" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "draft":
		return ModeDraft, true
	case "live", "":
		return ModeLive, true
	}
	return ModeLive, false
}

// ScheduleEntry places one section with a teacher, subject and room in a cell.
// BlockID ties the entry to a pool deployment. A non-zero Date marks a
// substitution overlay valid on that date only.
type ScheduleEntry struct {
	ID        string    `json:"id"`
	Day       Day       `json:"day"`
	SlotID    string    `json:"slot_id"`
	SectionID string    `json:"section_id"`
	TeacherID string    `json:"teacher_id"`
	Subject   string    `json:"subject"`
	Room      string    `json:"room,omitempty"`
	BlockID   string    `json:"block_id,omitempty"`
	BlockName string    `json:"block_name,omitempty"`
	Date      time.Time `json:"date,omitempty"`
}

// Cell returns the (day, slot) the entry occupies.
func (e ScheduleEntry) Cell() Cell { return Cell{Day: e.Day, SlotID: e.SlotID} }

// Dated reports whether the entry is an overlay for a single date.
func (e ScheduleEntry) Dated() bool { return !e.Date.IsZero() }

// Cell is one (day, slot) position of the weekly grid.
type Cell struct {
	Day    Day    `json:"day"`
	SlotID string `json:"slot_id"`
}

// SubstitutionRecord covers an absent teacher's period on a date.
// SubstituteTeacherID stays empty until assigned.
type SubstitutionRecord struct {
	ID                  string    `json:"id"`
	Date                time.Time `json:"date"`
	SlotID              string    `json:"slot_id"`
	SectionID           string    `json:"section_id"`
	Subject             string    `json:"subject,omitempty"`
	AbsentTeacherID     string    `json:"absent_teacher_id"`
	SubstituteTeacherID string    `json:"substitute_teacher_id,omitempty"`
	IsArchived          bool      `json:"is_archived"`
}

// Day returns the weekday of the record's date.
func (r SubstitutionRecord) Day() Day { return DayOf(r.Date) }

// Active reports whether the record still counts.
func (r SubstitutionRecord) Active() bool { return !r.IsArchived }

// Assigned reports whether an active record has a substitute.
func (r SubstitutionRecord) Assigned() bool { return !r.IsArchived && r.SubstituteTeacherID != "" }
