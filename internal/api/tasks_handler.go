package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/task"
)

// tasksHandler groups task-related HTTP handlers.
type tasksHandler struct {
	tasks *task.Service
}

func newTasksHandler(tasks *task.Service) *tasksHandler {
	return &tasksHandler{tasks: tasks}
}

// ListTasks handles GET /api/v1/tasks — every task visible to the caller.
func (h *tasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	tasks, err := h.tasks.List(r.Context(), u)
	if err != nil {
		writeDomainError(w, err, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// CreateTask handles POST /api/v1/tasks.
func (h *tasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req task.CreateTaskInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	created, err := h.tasks.Create(r.Context(), req, u)
	if err != nil {
		writeDomainError(w, err, "failed to create task")
		return
	}

	auditLog(r, "task.create", "task", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *tasksHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	t, err := h.tasks.Get(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, err, "failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updateTaskRequest mirrors task.UpdateTaskInput at the wire level. due_date
// is kept raw so that an explicit null (clear) can be told apart from an
// omitted field.
type updateTaskRequest struct {
	Title      *string         `json:"title"`
	Notes      *string         `json:"notes"`
	Category   *string         `json:"category"`
	Priority   *string         `json:"priority"`
	Status     *string         `json:"status"`
	DueDate    json.RawMessage `json:"due_date"`
	AssignedTo *[]string       `json:"assigned_to"`
	Teams      *[]string       `json:"teams"`
}

func (req *updateTaskRequest) toInput() (task.UpdateTaskInput, error) {
	in := task.UpdateTaskInput{
		Title:      req.Title,
		Notes:      req.Notes,
		Category:   req.Category,
		Priority:   req.Priority,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Teams:      req.Teams,
	}
	if len(req.DueDate) > 0 {
		in.DueDateSet = true
		if string(req.DueDate) != "null" {
			var due time.Time
			if err := json.Unmarshal(req.DueDate, &due); err != nil {
				return in, err
			}
			in.DueDate = &due
		}
	}
	return in, nil
}

// UpdateTask handles PATCH /api/v1/tasks/{id}. Omitted fields are unchanged;
// an explicit null due_date clears it.
func (h *tasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req updateTaskRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "due_date must be an RFC 3339 timestamp or null")
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.tasks.Update(r.Context(), id, in, u)
	if err != nil {
		writeDomainError(w, err, "failed to update task")
		return
	}

	auditLog(r, "task.update", "task", id)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}.
func (h *tasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.tasks.Delete(r.Context(), id, u); err != nil {
		writeDomainError(w, err, "failed to delete task")
		return
	}

	auditLog(r, "task.delete", "task", id)
	w.WriteHeader(http.StatusNoContent)
}

// AddComment handles POST /api/v1/tasks/{id}/comments.
func (h *tasksHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.tasks.Comment(r.Context(), id, req.Comment, u); err != nil {
		writeDomainError(w, err, "failed to add comment")
		return
	}

	auditLog(r, "task.comment", "task", id)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// ListTaskActivity handles GET /api/v1/tasks/{id}/activity.
func (h *tasksHandler) ListTaskActivity(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	records, err := h.tasks.ListActivity(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, err, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": records})
}

// ListRecentActivity handles GET /api/v1/activity — the latest audit records
// across every task the caller may see.
func (h *tasksHandler) ListRecentActivity(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_query", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.tasks.ListRecentActivity(r.Context(), u, limit)
	if err != nil {
		writeDomainError(w, err, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": records})
}
