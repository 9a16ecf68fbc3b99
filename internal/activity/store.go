package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the append-only activity log.
// Records are inserted and read, never updated; deletion happens only via
// the foreign-key cascade when the parent task is removed.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new activity store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const activityColumns = `id, task_id, user_id, type, details, created_at`

func scanActivity(row pgx.Row) (*Activity, error) {
	var a Activity
	var detailsJSON []byte
	err := row.Scan(&a.ID, &a.TaskID, &a.UserID, &a.Type, &detailsJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &a.Details); err != nil {
			return nil, fmt.Errorf("unmarshaling details: %w", err)
		}
	}
	return &a, nil
}

// InsertMany persists a batch of activity records in one round trip.
func (s *Store) InsertMany(ctx context.Context, records []Activity) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		detailsJSON, err := json.Marshal(records[i].Details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		batch.Queue(
			`INSERT INTO activities (id, task_id, user_id, type, details)
			 VALUES ($1, $2, $3, $4, $5)`,
			records[i].ID, records[i].TaskID, records[i].UserID, records[i].Type, detailsJSON,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting activity: %w", err)
		}
	}
	return nil
}

// ListByTask returns a task's activity records, newest first.
func (s *Store) ListByTask(ctx context.Context, taskID string) ([]*Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE task_id = $1
		 ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// ListForTasks returns the most recent activity records across the given
// tasks, newest first, capped at limit.
func (s *Store) ListForTasks(ctx context.Context, taskIDs []string, limit int) ([]*Activity, error) {
	if len(taskIDs) == 0 {
		return []*Activity{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE task_id = ANY($1::text[])
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, taskIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity feed: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func collectActivities(rows pgx.Rows) ([]*Activity, error) {
	activities := []*Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
