package activity

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestFormatDueDate(t *testing.T) {
	due := time.Date(2025, time.January, 10, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   *time.Time
		want string
	}{
		{"nil is none", nil, "none"},
		{"formatted", &due, "January 10, 2025 at 5:00 PM"},
		{"morning time", timePtr(time.Date(2024, time.March, 3, 9, 5, 0, 0, time.UTC)), "March 3, 2024 at 9:05 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDueDate(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiffSnapshots_NoChanges(t *testing.T) {
	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Title:      "Report",
		Notes:      "quarterly numbers",
		Priority:   "high",
		DueDate:    &due,
		Status:     "todo",
		AssignedTo: []string{"u1", "u2"},
	}

	if changes := DiffSnapshots(snap, snap); len(changes) != 0 {
		t.Errorf("expected no changes, got %+v", changes)
	}
}

func TestDiffSnapshots_PrioritySentinel(t *testing.T) {
	tests := []struct {
		name       string
		before, to string
		wantChange bool
	}{
		{"empty to none is not a change", "", "none", false},
		{"none to empty is not a change", "none", "", false},
		{"empty to high is a change", "", "high", true},
		{"high to none is a change", "high", "none", true},
		{"high to low is a change", "high", "low", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := DiffSnapshots(
				Snapshot{Priority: tt.before},
				Snapshot{Priority: tt.to},
			)
			if (len(changes) == 1) != tt.wantChange {
				t.Errorf("changes = %+v, wantChange = %v", changes, tt.wantChange)
			}
			if tt.wantChange && changes[0].Field != "priority" {
				t.Errorf("expected priority change, got %+v", changes[0])
			}
		})
	}
}

func TestDiffSnapshots_StatusChange(t *testing.T) {
	changes := DiffSnapshots(
		Snapshot{Status: "todo"},
		Snapshot{Status: "done"},
	)

	if len(changes) != 1 {
		t.Fatalf("expected exactly 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.Type != TypeStatusChange {
		t.Errorf("expected STATUS_CHANGE, got %s", c.Type)
	}
	if c.From != "todo" || c.To != "done" {
		t.Errorf("expected todo->done, got %s->%s", c.From, c.To)
	}
}

func TestDiffSnapshots_DueDate(t *testing.T) {
	jan10 := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	jan10Eastern := jan10.In(time.FixedZone("EST", -5*3600))
	jan11 := time.Date(2025, 1, 11, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		before, to *time.Time
		wantChange bool
		wantFrom   string
		wantTo     string
	}{
		{"both nil", nil, nil, false, "", ""},
		{"set due date", nil, &jan10, true, "none", "January 10, 2025 at 5:00 PM"},
		{"clear due date", &jan10, nil, true, "January 10, 2025 at 5:00 PM", "none"},
		{"moved due date", &jan10, &jan11, true, "January 10, 2025 at 5:00 PM", "January 11, 2025 at 5:00 PM"},
		{"same instant different zone", &jan10, &jan10Eastern, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := DiffSnapshots(
				Snapshot{DueDate: tt.before},
				Snapshot{DueDate: tt.to},
			)
			if (len(changes) == 1) != tt.wantChange {
				t.Fatalf("changes = %+v, wantChange = %v", changes, tt.wantChange)
			}
			if !tt.wantChange {
				return
			}
			c := changes[0]
			if c.Field != "dueDate" {
				t.Errorf("expected dueDate field, got %q", c.Field)
			}
			if c.From != tt.wantFrom || c.To != tt.wantTo {
				t.Errorf("got %s -> %s, want %s -> %s", c.From, c.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDiffSnapshots_NotesPresenceOnly(t *testing.T) {
	tests := []struct {
		name     string
		before   string
		after    string
		wantFrom string
		wantTo   string
	}{
		{"added", "", "the full text of the notes", "none", "set"},
		{"cleared", "the full text of the notes", "", "set", "none"},
		{"edited", "first draft", "second draft", "set", "edited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := DiffSnapshots(
				Snapshot{Notes: tt.before},
				Snapshot{Notes: tt.after},
			)
			if len(changes) != 1 {
				t.Fatalf("expected 1 change, got %d", len(changes))
			}
			c := changes[0]
			if c.Field != "notes" {
				t.Errorf("expected notes field, got %q", c.Field)
			}
			// Audit log must not carry the notes text itself.
			if c.From != tt.wantFrom || c.To != tt.wantTo {
				t.Errorf("got %s -> %s, want %s -> %s", c.From, c.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDiffSnapshots_AssignmentOrderInsensitive(t *testing.T) {
	changes := DiffSnapshots(
		Snapshot{AssignedTo: []string{"u2", "u1"}},
		Snapshot{AssignedTo: []string{"u1", "u2"}},
	)
	if len(changes) != 0 {
		t.Errorf("reordered assignees should not be a change, got %+v", changes)
	}
}

func TestDiffSnapshots_AssignmentChange(t *testing.T) {
	changes := DiffSnapshots(
		Snapshot{AssignedTo: []string{"u1"}},
		Snapshot{AssignedTo: []string{"u1", "u2"}},
	)

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.Type != TypeAssignmentChange {
		t.Errorf("expected ASSIGNMENT_CHANGE, got %s", c.Type)
	}
	if len(c.FromIDs) != 1 || len(c.ToIDs) != 2 {
		t.Errorf("unexpected id sets: from=%v to=%v", c.FromIDs, c.ToIDs)
	}
}

func TestDiffSnapshots_CountMatchesChangedFields(t *testing.T) {
	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	before := Snapshot{
		Title:      "Report",
		Notes:      "",
		Priority:   "",
		DueDate:    nil,
		Status:     "todo",
		AssignedTo: nil,
	}
	after := Snapshot{
		Title:      "Final report",
		Notes:      "new notes",
		Priority:   "high",
		DueDate:    &due,
		Status:     "in-progress",
		AssignedTo: []string{"u1"},
	}

	changes := DiffSnapshots(before, after)
	if len(changes) != 6 {
		t.Fatalf("expected 6 changes (one per diff-relevant field), got %d: %+v", len(changes), changes)
	}

	// Fixed comparison order.
	wantOrder := []string{"title", "notes", "priority", "dueDate", "", ""}
	wantTypes := []string{TypeUpdate, TypeUpdate, TypeUpdate, TypeUpdate, TypeStatusChange, TypeAssignmentChange}
	for i, c := range changes {
		if c.Field != wantOrder[i] {
			t.Errorf("change %d: field %q, want %q", i, c.Field, wantOrder[i])
		}
		if c.Type != wantTypes[i] {
			t.Errorf("change %d: type %q, want %q", i, c.Type, wantTypes[i])
		}
	}
}

func TestNewlyAssigned(t *testing.T) {
	tests := []struct {
		name          string
		before, after []string
		want          []string
	}{
		{"no change", []string{"u1"}, []string{"u1"}, nil},
		{"one added", []string{"u1"}, []string{"u1", "u2"}, []string{"u2"}},
		{"from empty", nil, []string{"u1", "u2"}, []string{"u1", "u2"}},
		{"removed only", []string{"u1", "u2"}, []string{"u1"}, nil},
		{"swap", []string{"u1"}, []string{"u2"}, []string{"u2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewlyAssigned(tt.before, tt.after)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
