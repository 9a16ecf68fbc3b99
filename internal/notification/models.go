package notification

import "time"

// Notification types.
const (
	TypeJoinRequest  = "JOIN_REQUEST"
	TypeTeamInvite   = "TEAM_INVITE"
	TypeTaskAssigned = "TASK_ASSIGNED"
)

// Notification is a durable message to a user about a pending action or an
// event requiring awareness.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Data        Data      `json:"data"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Data is the type-specific payload. Exactly one variant is set, keyed by
// the notification type.
type Data struct {
	JoinRequest  *JoinRequestData  `json:"join_request,omitempty"`
	TeamInvite   *TeamInviteData   `json:"team_invite,omitempty"`
	TaskAssigned *TaskAssignedData `json:"task_assigned,omitempty"`
}

// JoinRequestData identifies a pending join request awaiting the team owner.
type JoinRequestData struct {
	TeamID      string `json:"team_id"`
	TeamName    string `json:"team_name"`
	RequesterID string `json:"requester_id"`
}

// TeamInviteData identifies an invitation awaiting the invited user.
type TeamInviteData struct {
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`
	InviterID string `json:"inviter_id"`
}

// TaskAssignedData links an assignment notice back to its task.
type TaskAssignedData struct {
	TaskID string `json:"task_id"`
}
