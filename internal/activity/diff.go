package activity

import (
	"sort"
	"time"
)

// Snapshot captures the diff-relevant fields of a task at one point in time.
type Snapshot struct {
	Title      string
	Notes      string
	Priority   string // "", "none", "high", "medium", "low"
	DueDate    *time.Time
	Status     string
	AssignedTo []string
}

// Change describes one detected difference between two snapshots. For
// assignment changes FromIDs/ToIDs carry the raw user id sets so the caller
// can resolve display names before persisting.
type Change struct {
	Type    string
	Field   string
	From    string
	To      string
	FromIDs []string
	ToIDs   []string
}

// dueDateLayout renders due dates for audit records and notifications,
// e.g. "January 10, 2025 at 5:00 PM".
const dueDateLayout = "January 2, 2006 at 3:04 PM"

// FormatDueDate renders a due date for display, or the literal "none".
func FormatDueDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format(dueDateLayout)
}

// normalizePriority folds the absent and "none" spellings into one sentinel
// so that clearing a priority that was never set is not reported as a change.
func normalizePriority(p string) string {
	if p == "" {
		return "none"
	}
	return p
}

// describeNotes reports notes by presence only; the text itself is not
// copied into the audit log.
func describeNotes(notes string) string {
	if notes == "" {
		return "none"
	}
	return "set"
}

// sortedIDs returns a sorted copy of ids.
func sortedIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// DiffSnapshots compares two snapshots field by field in a fixed order:
// title, notes, priority, due date, status, assigned users. It emits one
// Change per field that differs and nothing for fields that are equal.
func DiffSnapshots(before, after Snapshot) []Change {
	var changes []Change

	if before.Title != after.Title {
		changes = append(changes, Change{
			Type:  TypeUpdate,
			Field: "title",
			From:  before.Title,
			To:    after.Title,
		})
	}

	if before.Notes != after.Notes {
		from, to := describeNotes(before.Notes), describeNotes(after.Notes)
		if from == "set" && to == "set" {
			to = "edited"
		}
		changes = append(changes, Change{
			Type:  TypeUpdate,
			Field: "notes",
			From:  from,
			To:    to,
		})
	}

	if normalizePriority(before.Priority) != normalizePriority(after.Priority) {
		changes = append(changes, Change{
			Type:  TypeUpdate,
			Field: "priority",
			From:  normalizePriority(before.Priority),
			To:    normalizePriority(after.Priority),
		})
	}

	if !sameInstant(before.DueDate, after.DueDate) {
		changes = append(changes, Change{
			Type:  TypeUpdate,
			Field: "dueDate",
			From:  FormatDueDate(before.DueDate),
			To:    FormatDueDate(after.DueDate),
		})
	}

	if before.Status != after.Status {
		changes = append(changes, Change{
			Type: TypeStatusChange,
			From: before.Status,
			To:   after.Status,
		})
	}

	fromIDs := sortedIDs(before.AssignedTo)
	toIDs := sortedIDs(after.AssignedTo)
	if !sameIDs(fromIDs, toIDs) {
		changes = append(changes, Change{
			Type:    TypeAssignmentChange,
			FromIDs: fromIDs,
			ToIDs:   toIDs,
		})
	}

	return changes
}

// NewlyAssigned returns the ids present in after but not in before.
func NewlyAssigned(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, id := range before {
		seen[id] = true
	}
	var added []string
	for _, id := range after {
		if !seen[id] {
			added = append(added, id)
		}
	}
	return added
}
