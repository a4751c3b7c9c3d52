package events

import (
	"time"

	"github.com/kilianp07/timetable/core/model"
)

// Event is implemented by every engine event.
type Event interface {
	// Name is a stable lowercase identifier used as journal and metric label.
	Name() string
}

// FillEvent is published after a grade was filled.
type FillEvent struct {
	GradeID   string
	GradeName string
	Mode      model.Mode
	Requested int
	Placed    int
	Skipped   int
	Duration  time.Duration
}

func (FillEvent) Name() string { return "fill" }

// ClearEvent is published after a grade's entries were removed.
type ClearEvent struct {
	GradeID string
	Mode    model.Mode
	Removed int
}

func (ClearEvent) Name() string { return "clear" }

// SubstitutionEvent reports a substitution operation. Action is one of
// "absent", "assign", "set" or "archive".
type SubstitutionEvent struct {
	Action     string
	Date       time.Time
	Created    int
	Assigned   int
	Unassigned int
	Archived   int
}

func (SubstitutionEvent) Name() string { return "substitution" }

// SwapEvent is published after a move or swap.
type SwapEvent struct {
	Mode    model.Mode
	Source  model.Cell
	Target  model.Cell
	Moved   int
	Swapped bool
}

func (SwapEvent) Name() string { return "swap" }

// BlockEvent reports a pool operation. Action is one of "save", "remove",
// "deploy" or "dismantle".
type BlockEvent struct {
	Action  string
	BlockID string
	GradeID string
	Mode    model.Mode
	Entries int
}

func (BlockEvent) Name() string { return "block" }

// PublishEvent is published after the draft was promoted or discarded.
type PublishEvent struct {
	Sections  []string
	Entries   int
	Discarded bool
}

func (PublishEvent) Name() string { return "publish" }

// FailureEvent is published when a durable write failed.
type FailureEvent struct {
	Op  string
	Err error
}

func (FailureEvent) Name() string { return "failure" }
