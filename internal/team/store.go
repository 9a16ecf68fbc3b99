package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no team matches the lookup.
var ErrNotFound = errors.New("team not found")

// ErrCodeTaken is returned when a generated join code collides with an
// existing team. Callers retry with a fresh code.
var ErrCodeTaken = errors.New("join code already in use")

// Store provides database operations for teams.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new team store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const teamColumns = `id, name, code, owner_id, members, pending, created_at`

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	var membersJSON, pendingJSON []byte
	err := row.Scan(&t.ID, &t.Name, &t.Code, &t.OwnerID, &membersJSON, &pendingJSON, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(membersJSON, &t.Members); err != nil {
		return nil, fmt.Errorf("unmarshaling members: %w", err)
	}
	if err := json.Unmarshal(pendingJSON, &t.Pending); err != nil {
		return nil, fmt.Errorf("unmarshaling pending: %w", err)
	}
	return &t, nil
}

func marshalIDs(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// Create persists a new team. A join-code collision surfaces as ErrCodeTaken.
func (s *Store) Create(ctx context.Context, t *Team) (*Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	membersJSON, err := marshalIDs(t.Members)
	if err != nil {
		return nil, fmt.Errorf("marshaling members: %w", err)
	}
	pendingJSON, err := marshalIDs(t.Pending)
	if err != nil {
		return nil, fmt.Errorf("marshaling pending: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO teams (id, name, code, owner_id, members, pending)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+teamColumns,
		t.ID, t.Name, t.Code, t.OwnerID, membersJSON, pendingJSON,
	)
	stored, err := scanTeam(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("inserting team: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a team by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Team, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return t, nil
}

// GetByCode retrieves a team by its join code.
func (s *Store) GetByCode(ctx context.Context, code string) (*Team, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE code = $1`, code)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting team by code: %w", err)
	}
	return t, nil
}

// ListByMember returns the teams the given user belongs to, oldest first.
func (s *Store) ListByMember(ctx context.Context, userID string) ([]*Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+teamColumns+` FROM teams
		 WHERE members @> to_jsonb($1::text)
		 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListIDsByMember returns just the ids of the teams the user belongs to.
// Task visibility checks need the ids and nothing else.
func (s *Store) ListIDsByMember(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM teams WHERE members @> to_jsonb($1::text)`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing team ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetMembership replaces a team's member and pending sets.
func (s *Store) SetMembership(ctx context.Context, id string, members, pending []string) (*Team, error) {
	membersJSON, err := marshalIDs(members)
	if err != nil {
		return nil, fmt.Errorf("marshaling members: %w", err)
	}
	pendingJSON, err := marshalIDs(pending)
	if err != nil {
		return nil, fmt.Errorf("marshaling pending: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE teams SET members = $2, pending = $3 WHERE id = $1
		 RETURNING `+teamColumns,
		id, membersJSON, pendingJSON,
	)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating team membership: %w", err)
	}
	return t, nil
}

// Rename updates a team's name.
func (s *Store) Rename(ctx context.Context, id, name string) (*Team, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE teams SET name = $2 WHERE id = $1 RETURNING `+teamColumns,
		id, name,
	)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("renaming team: %w", err)
	}
	return t, nil
}

// Delete removes a team by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
