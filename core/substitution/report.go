package substitution

import (
	"time"

	"github.com/kilianp07/timetable/core/model"
)

// Reasons a record stays unassigned.
const (
	ReasonNoEligible = "no eligible teacher"
	ReasonAtCap      = "all eligible teachers at weekly cap"
	ReasonBusy       = "no eligible teacher free"
)

// Assigned is one record that received a substitute.
type Assigned struct {
	RecordID  string `json:"record_id"`
	TeacherID string `json:"teacher_id"`
	// Load is the substitute's weekly load before this assignment.
	Load int `json:"load"`
}

// Unassigned is a record left without a substitute.
type Unassigned struct {
	Record model.SubstitutionRecord `json:"record"`
	Reason string                   `json:"reason"`
}

// Report is the outcome of an Assign pass. Unassigned records are data, not
// errors.
type Report struct {
	Date       time.Time    `json:"date"`
	Assigned   []Assigned   `json:"assigned"`
	Unassigned []Unassigned `json:"unassigned"`
}
