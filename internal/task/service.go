package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/notification"
)

// ErrForbidden is returned when the permission predicate rejects the actor.
var ErrForbidden = errors.New("you do not have access to this task")

// TaskStore is the persistence surface the Service drives.
type TaskStore interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	GetByID(ctx context.Context, id string) (*Task, error)
	ListVisible(ctx context.Context, userID string, memberTeamIDs []string) ([]*Task, error)
	Update(ctx context.Context, id string, in UpdateTaskInput) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// TeamDirectory answers which teams a user belongs to.
type TeamDirectory interface {
	ListIDsByMember(ctx context.Context, userID string) ([]string, error)
}

// Recorder persists the audit trail for task mutations.
type Recorder interface {
	RecordCreate(ctx context.Context, taskID string, actor activity.Actor) error
	RecordComment(ctx context.Context, taskID, comment string, actor activity.Actor) error
	RecordChanges(ctx context.Context, taskID string, before, after activity.Snapshot, actor activity.Actor) (int, error)
}

// Notifier fans out assignment notifications.
type Notifier interface {
	NotifyAssignment(ctx context.Context, ev notification.AssignmentEvent) (int, error)
}

// ActivityLister reads back the audit trail.
type ActivityLister interface {
	ListByTask(ctx context.Context, taskID string) ([]*activity.Activity, error)
	ListForTasks(ctx context.Context, taskIDs []string, limit int) ([]*activity.Activity, error)
}

// Service orchestrates task mutations: authorize, mutate, record the diff,
// then dispatch notifications. Audit and notification writes after a
// committed mutation are logged on failure, not rolled back.
type Service struct {
	tasks      TaskStore
	teams      TeamDirectory
	recorder   Recorder
	notifier   Notifier
	activities ActivityLister
	logger     *slog.Logger
}

// NewService creates a task Service.
func NewService(tasks TaskStore, teams TeamDirectory, recorder Recorder, notifier Notifier, activities ActivityLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tasks:      tasks,
		teams:      teams,
		recorder:   recorder,
		notifier:   notifier,
		activities: activities,
		logger:     logger,
	}
}

// Create validates and persists a new task owned by the actor, records the
// CREATE activity, and notifies any assignees.
func (s *Service) Create(ctx context.Context, in CreateTaskInput, actor *auth.User) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	priority := NormalizePriority(in.Priority)
	if !ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}
	status := NormalizeStatus(in.Status)
	if status == "" {
		status = StatusTodo
	}
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	t, err := s.tasks.Create(ctx, &Task{
		OwnerID:    actor.ID,
		Title:      title,
		Notes:      in.Notes,
		Category:   strings.TrimSpace(in.Category),
		Priority:   priority,
		Status:     status,
		DueDate:    in.DueDate,
		AssignedTo: in.AssignedTo,
		Teams:      in.Teams,
	})
	if err != nil {
		return nil, err
	}

	if err := s.recorder.RecordCreate(ctx, t.ID, actorOf(actor)); err != nil {
		s.logger.Error("failed to record task creation", "task_id", t.ID, "error", err)
	}
	s.notifyAssignment(ctx, t, t.AssignedTo, actor)
	return t, nil
}

// Get returns a task if the actor may see it.
func (s *Service) Get(ctx context.Context, id string, actor *auth.User) (*Task, error) {
	return s.authorize(ctx, id, actor)
}

// List returns every task visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*Task, error) {
	teamIDs, err := s.teams.ListIDsByMember(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListVisible(ctx, actor.ID, teamIDs)
}

// Update applies a partial update to a task the actor may edit, records one
// activity per changed field, and notifies newly assigned users.
func (s *Service) Update(ctx context.Context, id string, in UpdateTaskInput, actor *auth.User) (*Task, error) {
	before, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		if trimmed == "" {
			return nil, ErrTitleRequired
		}
		in.Title = &trimmed
	}
	if in.Priority != nil {
		normalized := NormalizePriority(*in.Priority)
		if !ValidPriority(normalized) {
			return nil, ErrInvalidPriority
		}
		in.Priority = &normalized
	}
	if in.Status != nil {
		normalized := NormalizeStatus(*in.Status)
		if !ValidStatus(normalized) {
			return nil, ErrInvalidStatus
		}
		in.Status = &normalized
	}

	after, err := s.tasks.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	if _, err := s.recorder.RecordChanges(ctx, after.ID, before.Snapshot(), after.Snapshot(), actorOf(actor)); err != nil {
		s.logger.Error("failed to record task changes", "task_id", after.ID, "error", err)
	}
	s.notifyAssignment(ctx, after, activity.NewlyAssigned(before.AssignedTo, after.AssignedTo), actor)
	return after, nil
}

// Delete removes a task the actor may edit. The audit trail goes with it.
func (s *Service) Delete(ctx context.Context, id string, actor *auth.User) error {
	if _, err := s.authorize(ctx, id, actor); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// Comment appends a COMMENT activity to a task the actor may see.
func (s *Service) Comment(ctx context.Context, id, comment string, actor *auth.User) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ErrCommentRequired
	}
	if _, err := s.authorize(ctx, id, actor); err != nil {
		return err
	}
	return s.recorder.RecordComment(ctx, id, comment, actorOf(actor))
}

// ListActivity returns a task's audit trail, newest first.
func (s *Service) ListActivity(ctx context.Context, id string, actor *auth.User) ([]*activity.Activity, error) {
	if _, err := s.authorize(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.activities.ListByTask(ctx, id)
}

// ListRecentActivity returns the latest audit records across every task the
// actor may see.
func (s *Service) ListRecentActivity(ctx context.Context, actor *auth.User, limit int) ([]*activity.Activity, error) {
	tasks, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return s.activities.ListForTasks(ctx, ids, limit)
}

// authorize loads a task and applies the permission predicate. A missing
// task is NotFound; a visible-but-foreign task is Forbidden.
func (s *Service) authorize(ctx context.Context, id string, actor *auth.User) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	teamIDs, err := s.teams.ListIDsByMember(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !CanAccess(t, actor.ID, teamIDs) {
		return nil, ErrForbidden
	}
	return t, nil
}

func (s *Service) notifyAssignment(ctx context.Context, t *Task, newAssignees []string, actor *auth.User) {
	if len(newAssignees) == 0 {
		return
	}
	_, err := s.notifier.NotifyAssignment(ctx, notification.AssignmentEvent{
		TaskID:       t.ID,
		TaskTitle:    t.Title,
		DueDate:      t.DueDate,
		NewAssignees: newAssignees,
		Actor:        actorOf(actor),
	})
	if err != nil {
		s.logger.Error("failed to dispatch assignment notifications", "task_id", t.ID, "error", err)
	}
}

func actorOf(u *auth.User) activity.Actor {
	return activity.Actor{ID: u.ID, Name: u.Name}
}
