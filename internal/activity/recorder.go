package activity

import (
	"context"
	"fmt"
	"strings"
)

// Sink is the interface used by Recorder to persist records. It exists to
// allow testing without a real database.
type Sink interface {
	InsertMany(ctx context.Context, records []Activity) error
}

// NameResolver resolves user ids to display names.
type NameResolver interface {
	DisplayNames(ctx context.Context, ids []string) ([]string, error)
}

// Recorder turns detected task changes into persisted activity records.
type Recorder struct {
	sink  Sink
	users NameResolver
}

// NewRecorder creates a Recorder writing to the given sink.
func NewRecorder(sink Sink, users NameResolver) *Recorder {
	return &Recorder{sink: sink, users: users}
}

// RecordCreate persists the single CREATE record for a new task.
func (r *Recorder) RecordCreate(ctx context.Context, taskID string, actor Actor) error {
	rec := Activity{
		TaskID:  taskID,
		UserID:  actor.ID,
		Type:    TypeCreate,
		Details: Details{UserName: actor.Name},
	}
	if err := r.sink.InsertMany(ctx, []Activity{rec}); err != nil {
		return fmt.Errorf("recording create: %w", err)
	}
	return nil
}

// RecordComment persists a COMMENT record. Comments are not diffs.
func (r *Recorder) RecordComment(ctx context.Context, taskID, comment string, actor Actor) error {
	rec := Activity{
		TaskID: taskID,
		UserID: actor.ID,
		Type:   TypeComment,
		Details: Details{
			Comment:  comment,
			UserName: actor.Name,
		},
	}
	if err := r.sink.InsertMany(ctx, []Activity{rec}); err != nil {
		return fmt.Errorf("recording comment: %w", err)
	}
	return nil
}

// RecordChanges diffs the two snapshots and persists one record per changed
// field. Assignment changes are stored with both sides resolved to display
// names. Returns the number of records written.
func (r *Recorder) RecordChanges(ctx context.Context, taskID string, before, after Snapshot, actor Actor) (int, error) {
	changes := DiffSnapshots(before, after)
	if len(changes) == 0 {
		return 0, nil
	}

	records := make([]Activity, 0, len(changes))
	for _, c := range changes {
		details := Details{
			Field:    c.Field,
			From:     c.From,
			To:       c.To,
			UserName: actor.Name,
		}
		if c.Type == TypeAssignmentChange {
			from, err := r.resolveNames(ctx, c.FromIDs)
			if err != nil {
				return 0, err
			}
			to, err := r.resolveNames(ctx, c.ToIDs)
			if err != nil {
				return 0, err
			}
			details.From = from
			details.To = to
		}
		records = append(records, Activity{
			TaskID:  taskID,
			UserID:  actor.ID,
			Type:    c.Type,
			Details: details,
		})
	}

	if err := r.sink.InsertMany(ctx, records); err != nil {
		return 0, fmt.Errorf("recording changes: %w", err)
	}
	return len(records), nil
}

// resolveNames renders an assignee id set as a display-name list, or
// "Unassigned" for the empty set.
func (r *Recorder) resolveNames(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "Unassigned", nil
	}
	names, err := r.users.DisplayNames(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("resolving assignee names: %w", err)
	}
	if len(names) == 0 {
		return "Unassigned", nil
	}
	return strings.Join(names, ", "), nil
}
