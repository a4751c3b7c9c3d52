// Package directory provides the read-only school configuration and identity
// data the scheduling engine consumes: wings, grades, sections, rooms, slot
// tables per wing-type, teachers and their wing eligibility.
package directory

import (
	"fmt"

	"github.com/kilianp07/timetable/core/model"
)

// DefaultMaxWeeklyPeriods caps a teacher's weekly load when the school file
// does not set one.
const DefaultMaxWeeklyPeriods = 35

// Identity resolves teachers and their role-based wing eligibility.
type Identity interface {
	Teacher(id string) (model.Teacher, bool)
	// Teachers returns all teachers in a stable input order.
	Teachers() []model.Teacher
	Eligible(teacherID string, wt model.WingType) bool
}

// Catalog exposes the configuration tables.
type Catalog interface {
	Wing(id string) (model.Wing, bool)
	Grade(id string) (model.Grade, bool)
	Section(id string) (model.Section, bool)
	// Sections returns the sections of a grade in input order.
	Sections(gradeID string) []model.Section
	Rooms() []model.Room
	Subjects() []string
	// Slots returns the ordered slot table of a wing-type, breaks included.
	Slots(wt model.WingType) []model.TimeSlot
	// Days returns the school days in iteration order.
	Days() []model.Day
	MaxWeeklyPeriods() int
}

// Directory is the combined read-only view.
type Directory interface {
	Identity
	Catalog
}

// WingTypeOf resolves the wing-type of a section.
func WingTypeOf(c Catalog, sectionID string) (model.WingType, error) {
	sec, ok := c.Section(sectionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", model.ErrUnknownSection, sectionID)
	}
	w, ok := c.Wing(sec.WingID)
	if !ok {
		return "", fmt.Errorf("section %s: unknown wing %s", sectionID, sec.WingID)
	}
	return w.Type, nil
}

// TeachingSlots returns the non-break slots of a section's wing-type.
func TeachingSlots(c Catalog, sectionID string) ([]model.TimeSlot, error) {
	wt, err := WingTypeOf(c, sectionID)
	if err != nil {
		return nil, err
	}
	var out []model.TimeSlot
	for _, s := range c.Slots(wt) {
		if !s.IsBreak {
			out = append(out, s)
		}
	}
	return out, nil
}

// SlotIndex returns the position of slotID in the table of wt, or -1.
func SlotIndex(c Catalog, wt model.WingType, slotID string) int {
	for i, s := range c.Slots(wt) {
		if s.ID == slotID {
			return i
		}
	}
	return -1
}

// IsTeachingSlot reports whether slotID is a non-break slot of the section's wing.
func IsTeachingSlot(c Catalog, sectionID, slotID string) bool {
	slots, err := TeachingSlots(c, sectionID)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if s.ID == slotID {
			return true
		}
	}
	return false
}
