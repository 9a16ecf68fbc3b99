package team

import "time"

// Team is a named group with one owner, a member set, and a set of users
// whose join requests await the owner's decision.
//
// Invariants: the owner is always a member; a user is never both a member
// and a pending requester; the owner cannot be removed.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	OwnerID   string    `json:"owner_id"`
	Members   []string  `json:"members"`
	Pending   []string  `json:"pending_requests"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOwner returns true if the given user owns the team.
func (t *Team) IsOwner(userID string) bool {
	return t.OwnerID == userID
}

// IsMember returns true if the given user is in the member set.
func (t *Team) IsMember(userID string) bool {
	return contains(t.Members, userID)
}

// IsPending returns true if the given user has a join request awaiting the
// owner.
func (t *Team) IsPending(userID string) bool {
	return contains(t.Pending, userID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
