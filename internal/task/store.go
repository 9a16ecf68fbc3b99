package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no task matches the lookup.
var ErrNotFound = errors.New("task not found")

// Store provides database operations for tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new task store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const taskColumns = `id, owner_id, title, notes, category, priority, status, due_date, assigned_to, teams, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	var assignedJSON, teamsJSON []byte
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Notes, &t.Category, &t.Priority,
		&t.Status, &t.DueDate, &assignedJSON, &teamsJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(assignedJSON, &t.AssignedTo); err != nil {
		return nil, fmt.Errorf("unmarshaling assigned_to: %w", err)
	}
	if err := json.Unmarshal(teamsJSON, &t.Teams); err != nil {
		return nil, fmt.Errorf("unmarshaling teams: %w", err)
	}
	return &t, nil
}

func marshalSet(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// Create persists a new task and returns the stored row.
func (s *Store) Create(ctx context.Context, t *Task) (*Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	assignedJSON, err := marshalSet(t.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("marshaling assigned_to: %w", err)
	}
	teamsJSON, err := marshalSet(t.Teams)
	if err != nil {
		return nil, fmt.Errorf("marshaling teams: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (id, owner_id, title, notes, category, priority, status, due_date, assigned_to, teams)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+taskColumns,
		t.ID, t.OwnerID, t.Title, t.Notes, t.Category, t.Priority, t.Status, t.DueDate,
		assignedJSON, teamsJSON,
	)
	stored, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a task by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// ListVisible returns the tasks the user may see: ones they own, ones they
// are assigned to, and ones shared with a team they belong to. Newest first.
func (s *Store) ListVisible(ctx context.Context, userID string, memberTeamIDs []string) ([]*Task, error) {
	if memberTeamIDs == nil {
		memberTeamIDs = []string{}
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner_id = $1
		    OR assigned_to @> to_jsonb($1::text)
		    OR EXISTS (
		         SELECT 1 FROM jsonb_array_elements_text(teams) team_id
		         WHERE team_id = ANY($2::text[])
		       )
		 ORDER BY created_at DESC, id DESC`,
		userID, memberTeamIDs)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update applies a partial update and returns the stored row. With no fields
// set it returns the task unchanged.
func (s *Store) Update(ctx context.Context, id string, in UpdateTaskInput) (*Task, error) {
	setClauses := []string{}
	args := []any{id}
	argIdx := 2

	addClause := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if in.Title != nil {
		addClause("title", *in.Title)
	}
	if in.Notes != nil {
		addClause("notes", *in.Notes)
	}
	if in.Category != nil {
		addClause("category", *in.Category)
	}
	if in.Priority != nil {
		addClause("priority", *in.Priority)
	}
	if in.Status != nil {
		addClause("status", *in.Status)
	}
	if in.DueDateSet {
		addClause("due_date", in.DueDate)
	}
	if in.AssignedTo != nil {
		assignedJSON, err := marshalSet(*in.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("marshaling assigned_to: %w", err)
		}
		addClause("assigned_to", assignedJSON)
	}
	if in.Teams != nil {
		teamsJSON, err := marshalSet(*in.Teams)
		if err != nil {
			return nil, fmt.Errorf("marshaling teams: %w", err)
		}
		addClause("teams", teamsJSON)
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := `UPDATE tasks SET ` + strings.Join(setClauses, ", ") +
		` WHERE id = $1 RETURNING ` + taskColumns
	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return t, nil
}

// Delete removes a task. Its activity records go with it through the
// foreign-key cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachTeam removes a team id from every task that references it. Called
// when the team is deleted so tasks do not keep dangling references.
func (s *Store) DetachTeam(ctx context.Context, teamID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks
		 SET teams = (
		       SELECT coalesce(jsonb_agg(team_id), '[]'::jsonb)
		       FROM jsonb_array_elements_text(teams) team_id
		       WHERE team_id <> $1
		     ),
		     updated_at = now()
		 WHERE teams @> to_jsonb($1::text)`, teamID)
	if err != nil {
		return fmt.Errorf("detaching team from tasks: %w", err)
	}
	return nil
}
