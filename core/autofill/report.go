package autofill

import (
	"fmt"

	"github.com/kilianp07/timetable/core/model"
)

// ReasonNoSlot is recorded for periods no candidate cell could take.
const ReasonNoSlot = "no available slot"

// Skip is one period that could not be placed.
type Skip struct {
	SectionID string `json:"section_id"`
	TeacherID string `json:"teacher_id,omitempty"`
	Subject   string `json:"subject"`
	BlockID   string `json:"block_id,omitempty"`
	Reason    string `json:"reason"`
}

func (s Skip) String() string {
	if s.BlockID != "" {
		return fmt.Sprintf("block %s section %s: %s", s.BlockID, s.SectionID, s.Reason)
	}
	return fmt.Sprintf("%s %s/%s: %s", s.SectionID, s.TeacherID, s.Subject, s.Reason)
}

// Report summarises one Fill. Skipped periods are never returned as errors.
type Report struct {
	GradeID        string                `json:"grade_id"`
	GradeName      string                `json:"grade_name"`
	Mode           model.Mode            `json:"mode"`
	TotalRequested int                   `json:"total_requested"`
	Placed         int                   `json:"placed"`
	Skipped        []Skip                `json:"skipped"`
	Entries        []model.ScheduleEntry `json:"entries,omitempty"`
}

// Complete reports whether every requested period was placed.
func (r Report) Complete() bool { return len(r.Skipped) == 0 }
