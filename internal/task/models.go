package task

import (
	"time"

	"github.com/tasktango/tasktango/internal/activity"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Task priorities. The empty string means no priority.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a unit of work owned by its creator, optionally assigned to users
// and shared with teams.
type Task struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	Category   string     `json:"category,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	Status     string     `json:"status"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	AssignedTo []string   `json:"assigned_to"`
	Teams      []string   `json:"teams"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Snapshot captures the task's diff-relevant fields for audit comparison.
func (t *Task) Snapshot() activity.Snapshot {
	return activity.Snapshot{
		Title:      t.Title,
		Notes:      t.Notes,
		Priority:   t.Priority,
		DueDate:    t.DueDate,
		Status:     t.Status,
		AssignedTo: t.AssignedTo,
	}
}

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	Category   string     `json:"category"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	DueDate    *time.Time `json:"due_date"`
	AssignedTo []string   `json:"assigned_to"`
	Teams      []string   `json:"teams"`
}

// UpdateTaskInput carries a partial update. Nil fields are left unchanged.
// DueDateSet distinguishes "clear the due date" from "leave it alone".
type UpdateTaskInput struct {
	Title      *string
	Notes      *string
	Category   *string
	Priority   *string
	Status     *string
	DueDate    *time.Time
	DueDateSet bool
	AssignedTo *[]string
	Teams      *[]string
}
