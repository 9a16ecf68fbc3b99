package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/user"
)

var (
	// ErrNameRequired is returned when a team name is empty.
	ErrNameRequired = errors.New("team name is required")
	// ErrInvalidCode is returned when a join code has the wrong shape.
	ErrInvalidCode = errors.New("invalid join code")
	// ErrNotOwner is returned when a non-owner attempts an owner-only action.
	ErrNotOwner = errors.New("only the team owner can do this")
	// ErrAlreadyMember is returned when the user already belongs to the team.
	ErrAlreadyMember = errors.New("user is already a member of this team")
	// ErrRequestPending is returned when the user already has a join request
	// awaiting the owner.
	ErrRequestPending = errors.New("a join request for this team is already pending")
	// ErrNoPendingRequest is returned when responding to a join request that
	// does not exist.
	ErrNoPendingRequest = errors.New("no pending join request for this user")
	// ErrNotMember is returned when removing a user who is not a member.
	ErrNotMember = errors.New("user is not a member of this team")
	// ErrCannotRemoveOwner is returned when attempting to remove the owner.
	ErrCannotRemoveOwner = errors.New("the team owner cannot be removed")
	// ErrInvalidAction is returned when a respond action is neither accept
	// nor reject.
	ErrInvalidAction = errors.New("action must be accept or reject")
)

// createCodeAttempts bounds the retry loop on join-code collisions.
const createCodeAttempts = 5

// TeamStore is the persistence surface the Service drives.
type TeamStore interface {
	Create(ctx context.Context, t *Team) (*Team, error)
	GetByID(ctx context.Context, id string) (*Team, error)
	GetByCode(ctx context.Context, code string) (*Team, error)
	ListByMember(ctx context.Context, userID string) ([]*Team, error)
	SetMembership(ctx context.Context, id string, members, pending []string) (*Team, error)
	Rename(ctx context.Context, id, name string) (*Team, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves invitees by email.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Notifier delivers membership notifications.
type Notifier interface {
	NotifyInvite(ctx context.Context, ev notification.InviteEvent) (*notification.Notification, error)
	NotifyJoinRequest(ctx context.Context, ev notification.JoinRequestEvent) (*notification.Notification, error)
}

// NotificationStore is the slice of the notification store the Service needs
// to consume invite and join-request notifications once they are acted on.
type NotificationStore interface {
	GetByID(ctx context.Context, id string) (*notification.Notification, error)
	Delete(ctx context.Context, id string) error
	DeleteJoinRequest(ctx context.Context, teamID, requesterID string) error
}

// TaskDetacher removes a deleted team's id from any tasks that reference it.
type TaskDetacher interface {
	DetachTeam(ctx context.Context, teamID string) error
}

// Service implements the team membership lifecycle on top of the store.
type Service struct {
	teams         TeamStore
	users         UserDirectory
	notifier      Notifier
	notifications NotificationStore
	tasks         TaskDetacher
	logger        *slog.Logger
}

// NewService creates a team Service.
func NewService(teams TeamStore, users UserDirectory, notifier Notifier, notifications NotificationStore, tasks TaskDetacher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		teams:         teams,
		users:         users,
		notifier:      notifier,
		notifications: notifications,
		tasks:         tasks,
		logger:        logger,
	}
}

// Create makes a new team owned by the actor, with a freshly generated join
// code. The owner starts as the only member.
func (s *Service) Create(ctx context.Context, name string, actor *auth.User) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	for attempt := 0; attempt < createCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		t, err := s.teams.Create(ctx, &Team{
			Name:    name,
			Code:    code,
			OwnerID: actor.ID,
			Members: []string{actor.ID},
			Pending: []string{},
		})
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("could not allocate a unique join code")
}

// ListForUser returns the teams the actor is a member of.
func (s *Service) ListForUser(ctx context.Context, actor *auth.User) ([]*Team, error) {
	return s.teams.ListByMember(ctx, actor.ID)
}

// Get returns a team. Non-members get NotFound rather than Forbidden so the
// team's existence is not leaked.
func (s *Service) Get(ctx context.Context, id string, actor *auth.User) (*Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsMember(actor.ID) {
		return nil, ErrNotFound
	}
	return t, nil
}

// JoinByCode records a join request for the team matching the code and
// notifies its owner. Joining by code never adds the user directly; the
// owner must accept the request first.
func (s *Service) JoinByCode(ctx context.Context, code string, actor *auth.User) (*Team, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}

	t, err := s.teams.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.IsMember(actor.ID) {
		return nil, ErrAlreadyMember
	}
	if t.IsPending(actor.ID) {
		return nil, ErrRequestPending
	}

	t, err = s.teams.SetMembership(ctx, t.ID, t.Members, appendUnique(t.Pending, actor.ID))
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.NotifyJoinRequest(ctx, notification.JoinRequestEvent{
		TeamID:        t.ID,
		TeamName:      t.Name,
		OwnerID:       t.OwnerID,
		RequesterID:   actor.ID,
		RequesterName: actor.Name,
	}); err != nil {
		s.logger.Error("failed to notify team owner of join request",
			"team_id", t.ID, "requester_id", actor.ID, "error", err)
	}
	return t, nil
}

// Invite sends a team invitation to the user with the given email. Only the
// owner can invite. A duplicate pending invite surfaces as
// notification.ErrDuplicateInvite.
func (s *Service) Invite(ctx context.Context, teamID, email string, actor *auth.User) (*notification.Notification, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsOwner(actor.ID) {
		return nil, ErrNotOwner
	}

	invitee, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if t.IsMember(invitee.ID) {
		return nil, ErrAlreadyMember
	}
	if t.IsPending(invitee.ID) {
		return nil, ErrRequestPending
	}

	return s.notifier.NotifyInvite(ctx, notification.InviteEvent{
		TeamID:      t.ID,
		TeamName:    t.Name,
		InvitedUser: invitee.ID,
		Actor:       actorOf(actor),
	})
}

// RespondToInvite resolves a TEAM_INVITE notification addressed to the actor.
// Accepting adds the actor to the team; either way the notification is
// consumed.
func (s *Service) RespondToInvite(ctx context.Context, notificationID, action string, actor *auth.User) (*Team, error) {
	accept, err := parseAction(action)
	if err != nil {
		return nil, err
	}

	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != actor.ID || n.Type != notification.TypeTeamInvite || n.Data.TeamInvite == nil {
		return nil, notification.ErrNotFound
	}

	if err := s.notifications.Delete(ctx, n.ID); err != nil && !errors.Is(err, notification.ErrNotFound) {
		return nil, err
	}
	if !accept {
		return nil, nil
	}

	t, err := s.teams.GetByID(ctx, n.Data.TeamInvite.TeamID)
	if err != nil {
		return nil, err
	}
	if t.IsMember(actor.ID) {
		return t, nil
	}
	wasPending := t.IsPending(actor.ID)

	t, err = s.teams.SetMembership(ctx, t.ID,
		appendUnique(t.Members, actor.ID), remove(t.Pending, actor.ID))
	if err != nil {
		return nil, err
	}

	// Accepting the invite also resolves any join request the actor had
	// open for the same team, so the owner's notification goes with it.
	if wasPending {
		if err := s.notifications.DeleteJoinRequest(ctx, t.ID, actor.ID); err != nil {
			s.logger.Error("failed to delete join request notification",
				"team_id", t.ID, "requester_id", actor.ID, "error", err)
		}
	}
	return t, nil
}

// RespondToJoinRequest resolves a pending join request. Only the owner can
// respond. The request leaves the pending set regardless of the decision,
// and the owner's JOIN_REQUEST notification is consumed.
func (s *Service) RespondToJoinRequest(ctx context.Context, teamID, requesterID, action string, actor *auth.User) (*Team, error) {
	accept, err := parseAction(action)
	if err != nil {
		return nil, err
	}

	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsOwner(actor.ID) {
		return nil, ErrNotOwner
	}
	if !t.IsPending(requesterID) {
		return nil, ErrNoPendingRequest
	}

	members := t.Members
	if accept {
		members = appendUnique(members, requesterID)
	}
	t, err = s.teams.SetMembership(ctx, t.ID, members, remove(t.Pending, requesterID))
	if err != nil {
		return nil, err
	}

	if err := s.notifications.DeleteJoinRequest(ctx, t.ID, requesterID); err != nil {
		s.logger.Error("failed to delete join request notification",
			"team_id", t.ID, "requester_id", requesterID, "error", err)
	}
	return t, nil
}

// RemoveMember takes a user out of the team. Only the owner can remove
// members, and the owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, teamID, memberID string, actor *auth.User) (*Team, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsOwner(actor.ID) {
		return nil, ErrNotOwner
	}
	if memberID == t.OwnerID {
		return nil, ErrCannotRemoveOwner
	}
	if !t.IsMember(memberID) {
		return nil, ErrNotMember
	}
	return s.teams.SetMembership(ctx, t.ID, remove(t.Members, memberID), t.Pending)
}

// Rename changes a team's name. Owner only.
func (s *Service) Rename(ctx context.Context, teamID, name string, actor *auth.User) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsOwner(actor.ID) {
		return nil, ErrNotOwner
	}
	return s.teams.Rename(ctx, t.ID, name)
}

// Delete removes a team. Owner only. Tasks keep existing but drop their
// reference to the deleted team before the row goes away.
func (s *Service) Delete(ctx context.Context, teamID string, actor *auth.User) error {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !t.IsOwner(actor.ID) {
		return ErrNotOwner
	}

	if err := s.tasks.DetachTeam(ctx, t.ID); err != nil {
		return fmt.Errorf("detaching team from tasks: %w", err)
	}
	return s.teams.Delete(ctx, t.ID)
}

func parseAction(action string) (accept bool, err error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "accept":
		return true, nil
	case "reject":
		return false, nil
	default:
		return false, ErrInvalidAction
	}
}

func actorOf(u *auth.User) activity.Actor {
	return activity.Actor{ID: u.ID, Name: u.Name}
}
