package auth

import "context"

// User represents an authenticated user resolved from a session token.
type User struct {
	ID    string
	Email string
	Name  string
	Role  string // "user" or "admin"
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// SessionLookup is the interface for resolving session tokens to users.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}
