package model

import "fmt"

// EntityKind selects which identity of an entry a lookup matches on.
type EntityKind int

const (
	KindSection EntityKind = iota + 1
	KindTeacher
	KindRoom
)

func (k EntityKind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindTeacher:
		return "teacher"
	case KindRoom:
		return "room"
	}
	return "unknown"
}

// ParseKind maps "section", "teacher" and "room" to an EntityKind.
func ParseKind(s string) (EntityKind, error) {
	switch s {
	case "section":
		return KindSection, nil
	case "teacher":
		return KindTeacher, nil
	case "room":
		return KindRoom, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// Key returns the identity of e for this kind.
func (k EntityKind) Key(e ScheduleEntry) string {
	switch k {
	case KindSection:
		return e.SectionID
	case KindTeacher:
		return e.TeacherID
	case KindRoom:
		return e.Room
	}
	return ""
}

// SubstitutionKey returns the identity a substitution occupies for this kind.
// Only teachers are occupied by substitutions.
func (k EntityKind) SubstitutionKey(r SubstitutionRecord) string {
	if k == KindTeacher {
		return r.SubstituteTeacherID
	}
	return ""
}

// Entity names one section, teacher or room.
type Entity struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// Matches reports whether e carries this entity.
func (en Entity) Matches(e ScheduleEntry) bool {
	return en.ID != "" && en.Kind.Key(e) == en.ID
}
