package task

// CanAccess decides whether a user may view or mutate a task. The same
// predicate gates read, update, delete, and comment. memberTeamIDs is the
// set of teams the user belongs to.
func CanAccess(t *Task, userID string, memberTeamIDs []string) bool {
	if t.OwnerID == userID {
		return true
	}
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	if len(t.Teams) == 0 || len(memberTeamIDs) == 0 {
		return false
	}
	member := make(map[string]bool, len(memberTeamIDs))
	for _, id := range memberTeamIDs {
		member[id] = true
	}
	for _, id := range t.Teams {
		if member[id] {
			return true
		}
	}
	return false
}
