package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/user"
)

// ErrDuplicateInvite is returned when an identical pending invite already
// exists for the (user, team) pair.
var ErrDuplicateInvite = errors.New("an invite for this user is already pending")

// Creator is the store surface the Dispatcher writes through. It exists to
// allow testing without a real database.
type Creator interface {
	Insert(ctx context.Context, n Notification) (*Notification, error)
	HasPendingInvite(ctx context.Context, recipientID, teamID string) (bool, error)
}

// UserLookup resolves recipients so notification preferences can be honored.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Dispatcher creates notification records for task-assignment, team-invite,
// and join-request events.
type Dispatcher struct {
	store Creator
	users UserLookup
}

// NewDispatcher creates a Dispatcher writing through the given store.
func NewDispatcher(store Creator, users UserLookup) *Dispatcher {
	return &Dispatcher{store: store, users: users}
}

// AssignmentEvent describes users newly assigned to a task.
type AssignmentEvent struct {
	TaskID       string
	TaskTitle    string
	DueDate      *time.Time
	NewAssignees []string
	Actor        activity.Actor
}

// InviteEvent describes a team invitation being extended.
type InviteEvent struct {
	TeamID      string
	TeamName    string
	InvitedUser string
	Actor       activity.Actor
}

// JoinRequestEvent describes a join-by-code request awaiting the owner.
type JoinRequestEvent struct {
	TeamID        string
	TeamName      string
	OwnerID       string
	RequesterID   string
	RequesterName string
}

// NotifyAssignment creates one TASK_ASSIGNED notification per newly assigned
// user, excluding the acting user, and only when the task has a due date.
// Recipients who disabled assignment notifications are skipped. Returns the
// number of notifications created.
func (d *Dispatcher) NotifyAssignment(ctx context.Context, ev AssignmentEvent) (int, error) {
	if ev.DueDate == nil || len(ev.NewAssignees) == 0 {
		return 0, nil
	}

	message := fmt.Sprintf("%s assigned you to %q, due %s",
		ev.Actor.Name, ev.TaskTitle, activity.FormatDueDate(ev.DueDate))

	created := 0
	for _, assignee := range ev.NewAssignees {
		if assignee == ev.Actor.ID {
			continue
		}

		recipient, err := d.users.GetByID(ctx, assignee)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				continue
			}
			return created, fmt.Errorf("resolving assignee %s: %w", assignee, err)
		}
		if !recipient.NotifyPrefs.TaskAssigned {
			continue
		}

		_, err = d.store.Insert(ctx, Notification{
			RecipientID: assignee,
			Type:        TypeTaskAssigned,
			Message:     message,
			Data: Data{
				TaskAssigned: &TaskAssignedData{TaskID: ev.TaskID},
			},
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// NotifyInvite creates a TEAM_INVITE notification. A second invite for the
// same (user, team) pair while one is still pending is a conflict, not a
// silent no-op.
func (d *Dispatcher) NotifyInvite(ctx context.Context, ev InviteEvent) (*Notification, error) {
	pending, err := d.store.HasPendingInvite(ctx, ev.InvitedUser, ev.TeamID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicateInvite
	}

	return d.store.Insert(ctx, Notification{
		RecipientID: ev.InvitedUser,
		Type:        TypeTeamInvite,
		Message:     fmt.Sprintf("%s invited you to join team %q", ev.Actor.Name, ev.TeamName),
		Data: Data{
			TeamInvite: &TeamInviteData{
				TeamID:    ev.TeamID,
				TeamName:  ev.TeamName,
				InviterID: ev.Actor.ID,
			},
		},
	})
}

// NotifyJoinRequest creates a JOIN_REQUEST notification for the team owner.
func (d *Dispatcher) NotifyJoinRequest(ctx context.Context, ev JoinRequestEvent) (*Notification, error) {
	return d.store.Insert(ctx, Notification{
		RecipientID: ev.OwnerID,
		Type:        TypeJoinRequest,
		Message:     fmt.Sprintf("%s requested to join team %q", ev.RequesterName, ev.TeamName),
		Data: Data{
			JoinRequest: &JoinRequestData{
				TeamID:      ev.TeamID,
				TeamName:    ev.TeamName,
				RequesterID: ev.RequesterID,
			},
		},
	})
}
