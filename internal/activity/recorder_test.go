package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSink captures inserted records in memory.
type fakeSink struct {
	records []Activity
	err     error
}

func (f *fakeSink) InsertMany(_ context.Context, records []Activity) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, records...)
	return nil
}

// fakeNames resolves ids from a fixed map.
type fakeNames struct {
	names map[string]string
}

func (f *fakeNames) DisplayNames(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if n, ok := f.names[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func newTestRecorder(sink *fakeSink) *Recorder {
	return NewRecorder(sink, &fakeNames{names: map[string]string{
		"u1": "Alice",
		"u2": "Bob",
	}})
}

func TestRecordCreate(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	err := r.RecordCreate(context.Background(), "t1", Actor{ID: "u1", Name: "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Type != TypeCreate {
		t.Errorf("expected CREATE, got %s", rec.Type)
	}
	if rec.TaskID != "t1" || rec.UserID != "u1" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Details.UserName != "Alice" {
		t.Errorf("expected captured display name, got %q", rec.Details.UserName)
	}
}

func TestRecordComment(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	err := r.RecordComment(context.Background(), "t1", "looks good", Actor{ID: "u2", Name: "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Type != TypeComment {
		t.Errorf("expected COMMENT, got %s", rec.Type)
	}
	if rec.Details.Comment != "looks good" || rec.Details.UserName != "Bob" {
		t.Errorf("unexpected details: %+v", rec.Details)
	}
}

func TestRecordChanges_StatusOnly(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	n, err := r.RecordChanges(context.Background(), "t1",
		Snapshot{Status: "todo"},
		Snapshot{Status: "done"},
		Actor{ID: "u1", Name: "Alice"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}

	rec := sink.records[0]
	if rec.Type != TypeStatusChange {
		t.Errorf("expected STATUS_CHANGE, got %s", rec.Type)
	}
	if rec.Details.From != "todo" || rec.Details.To != "done" {
		t.Errorf("expected todo -> done, got %s -> %s", rec.Details.From, rec.Details.To)
	}
}

func TestRecordChanges_AssignmentResolvesNames(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	n, err := r.RecordChanges(context.Background(), "t1",
		Snapshot{AssignedTo: nil},
		Snapshot{AssignedTo: []string{"u2", "u1"}},
		Actor{ID: "u1", Name: "Alice"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}

	rec := sink.records[0]
	if rec.Type != TypeAssignmentChange {
		t.Errorf("expected ASSIGNMENT_CHANGE, got %s", rec.Type)
	}
	if rec.Details.From != "Unassigned" {
		t.Errorf("expected Unassigned, got %q", rec.Details.From)
	}
	// Ids are sorted before resolution, so names come out in id order.
	if rec.Details.To != "Alice, Bob" {
		t.Errorf("expected \"Alice, Bob\", got %q", rec.Details.To)
	}
}

func TestRecordChanges_NoChangesWritesNothing(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	snap := Snapshot{Title: "Report", Status: "todo", DueDate: &due}

	n, err := r.RecordChanges(context.Background(), "t1", snap, snap, Actor{ID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || len(sink.records) != 0 {
		t.Errorf("expected no records, got %d", len(sink.records))
	}
}

func TestRecordChanges_SinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("insert failed")}
	r := newTestRecorder(sink)

	_, err := r.RecordChanges(context.Background(), "t1",
		Snapshot{Status: "todo"},
		Snapshot{Status: "done"},
		Actor{ID: "u1"},
	)
	if err == nil {
		t.Error("expected error from failing sink")
	}
}

func TestRecordChanges_OneRecordPerChangedField(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRecorder(sink)

	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	n, err := r.RecordChanges(context.Background(), "t1",
		Snapshot{Title: "Report", Status: "todo"},
		Snapshot{Title: "Final report", Status: "done", DueDate: &due, AssignedTo: []string{"u2"}},
		Actor{ID: "u1", Name: "Alice"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 records (title, dueDate, status, assignment), got %d", n)
	}
	for _, rec := range sink.records {
		if rec.Details.UserName != "Alice" {
			t.Errorf("every record should capture the actor name, got %+v", rec.Details)
		}
	}
}
