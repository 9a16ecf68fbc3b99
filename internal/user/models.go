package user

import "time"

// NotifyPrefs controls which notification types a user receives.
type NotifyPrefs struct {
	TaskAssigned bool `json:"task_assigned"`
	TeamInvite   bool `json:"team_invite"`
	JoinRequest  bool `json:"join_request"`
}

// DefaultNotifyPrefs returns the preferences applied to new accounts.
func DefaultNotifyPrefs() NotifyPrefs {
	return NotifyPrefs{TaskAssigned: true, TeamInvite: true, JoinRequest: true}
}

// User represents a registered account.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	Role         string      `json:"role"` // "user" or "admin"
	NotifyPrefs  NotifyPrefs `json:"notify_prefs"`
	CreatedAt    time.Time   `json:"created_at"`
}

// CreateUserInput holds the fields required to register a user.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UpdateUserInput holds the fields that can be updated on a user.
// All fields are optional; only non-nil fields are applied.
type UpdateUserInput struct {
	Name        *string      `json:"name"`
	Password    *string      `json:"password"`
	NotifyPrefs *NotifyPrefs `json:"notify_prefs"`
}

// Session is a server-side login session. Only the SHA-256 hash of the
// opaque token is stored.
type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}
