package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no notification matches the lookup.
var ErrNotFound = errors.New("notification not found")

// Store provides database operations for notifications.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new notification store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const notificationColumns = `id, recipient_id, type, message, data, read, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var dataJSON []byte
	err := row.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Message, &dataJSON, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshaling data: %w", err)
		}
	}
	return &n, nil
}

// Insert persists a new notification and returns the stored row.
func (s *Store) Insert(ctx context.Context, n Notification) (*Notification, error) {
	dataJSON, err := json.Marshal(n.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling data: %w", err)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, recipient_id, type, message, data)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notificationColumns,
		n.ID, n.RecipientID, n.Type, n.Message, dataJSON,
	)
	stored, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a notification by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// ListByRecipient returns a user's notifications, newest first.
func (s *Store) ListByRecipient(ctx context.Context, recipientID string) ([]*Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC, id DESC`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Delete removes a notification by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead flags a notification as read. The recipient check prevents one
// user from touching another user's notifications.
func (s *Store) MarkRead(ctx context.Context, id, recipientID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags all of a user's notifications as read.
func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE recipient_id = $1 AND read = false`,
		recipientID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HasPendingInvite reports whether the user already has a TEAM_INVITE
// notification for the given team.
func (s *Store) HasPendingInvite(ctx context.Context, recipientID, teamID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM notifications
		   WHERE recipient_id = $1 AND type = $2
		     AND data -> 'team_invite' ->> 'team_id' = $3
		 )`, recipientID, TypeTeamInvite, teamID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking pending invite: %w", err)
	}
	return exists, nil
}

// DeleteJoinRequest removes the JOIN_REQUEST notification created for a
// team's owner when the given user requested to join.
func (s *Store) DeleteJoinRequest(ctx context.Context, teamID, requesterID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM notifications
		 WHERE type = $1
		   AND data -> 'join_request' ->> 'team_id' = $2
		   AND data -> 'join_request' ->> 'requester_id' = $3`,
		TypeJoinRequest, teamID, requesterID)
	if err != nil {
		return fmt.Errorf("deleting join request notification: %w", err)
	}
	return nil
}
