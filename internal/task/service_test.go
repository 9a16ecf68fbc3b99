package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tasktango/tasktango/internal/activity"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/notification"
)

type fakeTaskStore struct {
	tasks  map[string]*Task
	nextID int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[string]*Task{}}
}

func (f *fakeTaskStore) Create(_ context.Context, t *Task) (*Task, error) {
	f.nextID++
	cp := *t
	cp.ID = "task" + string(rune('0'+f.nextID))
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.tasks[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id string) (*Task, error) {
	if t, ok := f.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeTaskStore) ListVisible(_ context.Context, userID string, teamIDs []string) ([]*Task, error) {
	out := []*Task{}
	for _, t := range f.tasks {
		if CanAccess(t, userID, teamIDs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, id string, in UpdateTaskInput) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDateSet {
		t.DueDate = in.DueDate
	}
	if in.AssignedTo != nil {
		t.AssignedTo = *in.AssignedTo
	}
	if in.Teams != nil {
		t.Teams = *in.Teams
	}
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

type fakeTeams struct {
	byUser map[string][]string
}

func (f *fakeTeams) ListIDsByMember(_ context.Context, userID string) ([]string, error) {
	return f.byUser[userID], nil
}

type recordedChange struct {
	taskID string
	before activity.Snapshot
	after  activity.Snapshot
}

type fakeRecorder struct {
	creates   []string
	comments  []string
	changes   []recordedChange
	createErr error
}

func (f *fakeRecorder) RecordCreate(_ context.Context, taskID string, _ activity.Actor) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.creates = append(f.creates, taskID)
	return nil
}

func (f *fakeRecorder) RecordComment(_ context.Context, taskID, comment string, _ activity.Actor) error {
	f.comments = append(f.comments, taskID+":"+comment)
	return nil
}

func (f *fakeRecorder) RecordChanges(_ context.Context, taskID string, before, after activity.Snapshot, _ activity.Actor) (int, error) {
	f.changes = append(f.changes, recordedChange{taskID: taskID, before: before, after: after})
	return len(activity.DiffSnapshots(before, after)), nil
}

type fakeAssignNotifier struct {
	events []notification.AssignmentEvent
	err    error
}

func (f *fakeAssignNotifier) NotifyAssignment(_ context.Context, ev notification.AssignmentEvent) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.events = append(f.events, ev)
	return len(ev.NewAssignees), nil
}

type fakeActivities struct {
	byTask    map[string][]*activity.Activity
	forTasks  []string
	lastLimit int
}

func (f *fakeActivities) ListByTask(_ context.Context, taskID string) ([]*activity.Activity, error) {
	return f.byTask[taskID], nil
}

func (f *fakeActivities) ListForTasks(_ context.Context, taskIDs []string, limit int) ([]*activity.Activity, error) {
	f.forTasks = taskIDs
	f.lastLimit = limit
	return nil, nil
}

type taskFixture struct {
	svc        *Service
	store      *fakeTaskStore
	teams      *fakeTeams
	recorder   *fakeRecorder
	notifier   *fakeAssignNotifier
	activities *fakeActivities
}

func newTaskFixture() *taskFixture {
	store := newFakeTaskStore()
	teams := &fakeTeams{byUser: map[string][]string{}}
	recorder := &fakeRecorder{}
	notifier := &fakeAssignNotifier{}
	activities := &fakeActivities{byTask: map[string][]*activity.Activity{}}
	return &taskFixture{
		svc:        NewService(store, teams, recorder, notifier, activities, nil),
		store:      store,
		teams:      teams,
		recorder:   recorder,
		notifier:   notifier,
		activities: activities,
	}
}

func asAlice() *auth.User { return &auth.User{ID: "alice", Name: "Alice", Role: "user"} }
func asBob() *auth.User   { return &auth.User{ID: "bob", Name: "Bob", Role: "user"} }

func TestCreate_Defaults(t *testing.T) {
	f := newTaskFixture()

	created, err := f.svc.Create(context.Background(), CreateTaskInput{Title: " Report "}, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Title != "Report" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}
	if created.Status != StatusTodo {
		t.Errorf("expected default status todo, got %q", created.Status)
	}
	if created.OwnerID != "alice" {
		t.Errorf("expected owner alice, got %q", created.OwnerID)
	}
	if len(f.recorder.creates) != 1 {
		t.Errorf("expected one CREATE activity, got %d", len(f.recorder.creates))
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newTaskFixture()

	if _, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "  "}, asAlice()); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("empty title: expected ErrTitleRequired, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "x", Priority: "urgent"}, asAlice()); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority: expected ErrInvalidPriority, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "x", Status: "open"}, asAlice()); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status: expected ErrInvalidStatus, got %v", err)
	}
}

func TestCreate_PrioritySentinel(t *testing.T) {
	f := newTaskFixture()

	created, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "x", Priority: "None"}, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Priority != "" {
		t.Errorf(`expected "none" folded to empty priority, got %q`, created.Priority)
	}
}

func TestCreate_NotifiesAssignees(t *testing.T) {
	f := newTaskFixture()
	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)

	created, err := f.svc.Create(context.Background(), CreateTaskInput{
		Title:      "Report",
		DueDate:    &due,
		AssignedTo: []string{"bob"},
	}, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.notifier.events) != 1 {
		t.Fatalf("expected one assignment event, got %d", len(f.notifier.events))
	}
	ev := f.notifier.events[0]
	if ev.TaskID != created.ID || ev.TaskTitle != "Report" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.NewAssignees) != 1 || ev.NewAssignees[0] != "bob" {
		t.Errorf("expected bob as new assignee, got %v", ev.NewAssignees)
	}
	if ev.DueDate == nil || !ev.DueDate.Equal(due) {
		t.Errorf("expected due date carried on the event, got %v", ev.DueDate)
	}
}

func TestCreate_NoAssigneesNoEvent(t *testing.T) {
	f := newTaskFixture()

	if _, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "Report"}, asAlice()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("expected no assignment events, got %d", len(f.notifier.events))
	}
}

func TestCreate_RecorderFailureDoesNotSurface(t *testing.T) {
	f := newTaskFixture()
	f.recorder.createErr = errors.New("db down")

	if _, err := f.svc.Create(context.Background(), CreateTaskInput{Title: "Report"}, asAlice()); err != nil {
		t.Errorf("audit failure after a committed create must not surface, got %v", err)
	}
}

func seedTask(t *testing.T, f *taskFixture, in CreateTaskInput) *Task {
	t.Helper()
	created, err := f.svc.Create(context.Background(), in, asAlice())
	if err != nil {
		t.Fatalf("seeding task: %v", err)
	}
	return created
}

func TestGet_Authorization(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report", Teams: []string{"team1"}})

	if _, err := f.svc.Get(context.Background(), created.ID, asAlice()); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), created.ID, asBob()); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger read: expected ErrForbidden, got %v", err)
	}

	f.teams.byUser["bob"] = []string{"team1"}
	if _, err := f.svc.Get(context.Background(), created.ID, asBob()); err != nil {
		t.Errorf("team member read: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), "missing", asAlice()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task: expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_RecordsDiffAndNotifies(t *testing.T) {
	f := newTaskFixture()
	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	created := seedTask(t, f, CreateTaskInput{Title: "Report", DueDate: &due, AssignedTo: []string{"bob"}})
	f.notifier.events = nil

	status := "done"
	assigned := []string{"bob", "carol"}
	updated, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{
		Status:     &status,
		AssignedTo: &assigned,
	}, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusDone {
		t.Errorf("expected status done, got %q", updated.Status)
	}

	if len(f.recorder.changes) != 1 {
		t.Fatalf("expected one RecordChanges call, got %d", len(f.recorder.changes))
	}
	rc := f.recorder.changes[0]
	if rc.before.Status != StatusTodo || rc.after.Status != StatusDone {
		t.Errorf("snapshot mismatch: before=%q after=%q", rc.before.Status, rc.after.Status)
	}

	if len(f.notifier.events) != 1 {
		t.Fatalf("expected one assignment event, got %d", len(f.notifier.events))
	}
	if got := f.notifier.events[0].NewAssignees; len(got) != 1 || got[0] != "carol" {
		t.Errorf("only newly assigned users get an event, got %v", got)
	}
}

func TestUpdate_NoNewAssigneesNoEvent(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	status := "in-progress"
	if _, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{Status: &status}, asAlice()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("expected no assignment events, got %d", len(f.notifier.events))
	}
}

func TestUpdate_ClearsDueDate(t *testing.T) {
	f := newTaskFixture()
	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	created := seedTask(t, f, CreateTaskInput{Title: "Report", DueDate: &due})

	updated, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{DueDateSet: true}, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DueDate != nil {
		t.Errorf("expected cleared due date, got %v", updated.DueDate)
	}
	if len(f.recorder.changes) != 1 {
		t.Fatalf("expected one RecordChanges call, got %d", len(f.recorder.changes))
	}
}

func TestUpdate_Validation(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	empty := "  "
	if _, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{Title: &empty}, asAlice()); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("blank title: expected ErrTitleRequired, got %v", err)
	}
	bad := "urgent"
	if _, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{Priority: &bad}, asAlice()); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority: expected ErrInvalidPriority, got %v", err)
	}
}

func TestUpdate_Forbidden(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	status := "done"
	if _, err := f.svc.Update(context.Background(), created.ID, UpdateTaskInput{Status: &status}, asBob()); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(f.recorder.changes) != 0 {
		t.Error("a rejected update must not write audit records")
	}
}

func TestDelete(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	if err := f.svc.Delete(context.Background(), created.ID, asBob()); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger delete: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), created.ID, asAlice()); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), created.ID, asAlice()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestComment(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	if err := f.svc.Comment(context.Background(), created.ID, "  ", asAlice()); !errors.Is(err, ErrCommentRequired) {
		t.Errorf("blank comment: expected ErrCommentRequired, got %v", err)
	}
	if err := f.svc.Comment(context.Background(), created.ID, "looks good", asBob()); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger comment: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Comment(context.Background(), created.ID, " looks good ", asAlice()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.recorder.comments) != 1 || f.recorder.comments[0] != created.ID+":looks good" {
		t.Errorf("unexpected comments: %v", f.recorder.comments)
	}
}

func TestList_Visibility(t *testing.T) {
	f := newTaskFixture()
	seedTask(t, f, CreateTaskInput{Title: "Mine"})
	shared := seedTask(t, f, CreateTaskInput{Title: "Shared", Teams: []string{"team1"}})
	f.teams.byUser["bob"] = []string{"team1"}

	visible, err := f.svc.List(context.Background(), asBob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != shared.ID {
		t.Errorf("expected only the shared task, got %d tasks", len(visible))
	}
}

func TestListActivity_Authorization(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})
	f.activities.byTask[created.ID] = []*activity.Activity{{ID: "a1", TaskID: created.ID}}

	records, err := f.svc.ListActivity(context.Background(), created.ID, asAlice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected one record, got %d", len(records))
	}

	if _, err := f.svc.ListActivity(context.Background(), created.ID, asBob()); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestListRecentActivity(t *testing.T) {
	f := newTaskFixture()
	created := seedTask(t, f, CreateTaskInput{Title: "Report"})

	if _, err := f.svc.ListRecentActivity(context.Background(), asAlice(), 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.activities.forTasks) != 1 || f.activities.forTasks[0] != created.ID {
		t.Errorf("expected lookup scoped to visible tasks, got %v", f.activities.forTasks)
	}
	if f.activities.lastLimit != 20 {
		t.Errorf("expected limit 20, got %d", f.activities.lastLimit)
	}
}
