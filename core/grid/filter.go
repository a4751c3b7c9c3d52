package grid

import "github.com/kilianp07/timetable/core/model"

// Filter selects schedule entries. Empty fields match everything; set fields
// are combined with AND. A zero Filter matches every entry.
type Filter struct {
	IDs        []string  `json:"ids,omitempty"`
	SectionIDs []string  `json:"section_ids,omitempty"`
	TeacherID  string    `json:"teacher_id,omitempty"`
	BlockID    string    `json:"block_id,omitempty"`
	Day        model.Day `json:"day,omitempty"`
	SlotID     string    `json:"slot_id,omitempty"`
}

// Match reports whether e satisfies f.
func (f Filter) Match(e model.ScheduleEntry) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, e.ID) {
		return false
	}
	if len(f.SectionIDs) > 0 && !contains(f.SectionIDs, e.SectionID) {
		return false
	}
	if f.TeacherID != "" && e.TeacherID != f.TeacherID {
		return false
	}
	if f.BlockID != "" && e.BlockID != f.BlockID {
		return false
	}
	if f.Day != 0 && e.Day != f.Day {
		return false
	}
	if f.SlotID != "" && e.SlotID != f.SlotID {
		return false
	}
	return true
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool {
	return len(f.IDs) == 0 && len(f.SectionIDs) == 0 && f.TeacherID == "" && f.BlockID == "" && f.Day == 0 && f.SlotID == ""
}

// ByIDs selects the given entry ids. An empty list selects nothing.
func ByIDs(ids ...string) Filter {
	if len(ids) == 0 {
		return Filter{IDs: []string{""}}
	}
	return Filter{IDs: ids}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
