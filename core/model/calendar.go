package model

import (
	"fmt"
	"strings"
	"time"
)

// Day is a school weekday. The zero value means "unset".
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Day) String() string {
	if d < Monday || d > Sunday {
		return "Unset"
	}
	return dayNames[d]
}

// Valid reports whether d names a weekday.
func (d Day) Valid() bool { return d >= Monday && d <= Sunday }

// ParseDay accepts full or three-letter English day names, case-insensitive.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := Monday; i <= Sunday; i++ {
		name := strings.ToLower(dayNames[i])
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DayOf maps a calendar date to its weekday.
func DayOf(t time.Time) Day {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Day(wd)
}

// SameDate compares two dates ignoring the time of day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the Monday of the week containing t, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(DayOf(d)-Monday))
}

// WingType selects the slot table and teacher eligibility of a wing.
type WingType string

const (
	WingPrimary   WingType = "PRIMARY"
	WingSecondary WingType = "SECONDARY"
)

// TimeSlot is one period of a wing-type's day.
type TimeSlot struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	IsBreak bool   `json:"is_break" yaml:"is_break"`
}
