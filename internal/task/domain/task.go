package domain

import (
	"errors"
	"time"
)

// Task is a unit of work belonging to a team, optionally assigned to a
// user. TeamName and AssigneeEmail are filled on reads that join those rows.
type Task struct {
	ID            int64
	Title         string
	Description   string
	DueDate       *time.Time
	TeamID        int64
	AssignedTo    *int64
	TeamName      string
	AssigneeEmail *string
}

// Patch describes a partial task update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	AssignedTo  *int64
	// ClearDueDate and ClearAssignee null out the column when the
	// caller sends an explicit null.
	ClearDueDate  bool
	ClearAssignee bool
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.AssignedTo == nil && !p.ClearDueDate && !p.ClearAssignee
}

// Validate validates the task for persistence.
func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if t.TeamID == 0 {
		return errors.New("team is required")
	}
	return nil
}
