package activity

import "time"

// Activity types.
const (
	TypeCreate           = "CREATE"
	TypeStatusChange     = "STATUS_CHANGE"
	TypeAssignmentChange = "ASSIGNMENT_CHANGE"
	TypeComment          = "COMMENT"
	TypeUpdate           = "UPDATE"
)

// Activity is one immutable audit record of a detected task change.
type Activity struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Details   Details   `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Details is the per-type payload of an activity record. Field is set only
// for UPDATE records; Comment only for COMMENT records. UserName is the
// acting user's display name captured at write time.
type Details struct {
	Field    string `json:"field,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Comment  string `json:"comment,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// Actor identifies the user performing a mutation.
type Actor struct {
	ID   string
	Name string
}
