package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/team"
)

// notificationsHandler groups notification HTTP handlers.
type notificationsHandler struct {
	store *notification.Store
	teams *team.Service
}

func newNotificationsHandler(store *notification.Store, teams *team.Service) *notificationsHandler {
	return &notificationsHandler{store: store, teams: teams}
}

// ListNotifications handles GET /api/v1/notifications — the caller's
// notifications, newest first.
func (h *notificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	notifications, err := h.store.ListByRecipient(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// Respond handles POST /api/v1/notifications/{id}/respond — accept or
// reject a team invite. The notification is consumed either way.
func (h *notificationsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	id := chi.URLParam(r, "id")
	joined, err := h.teams.RespondToInvite(r.Context(), id, req.Action, u)
	if err != nil {
		writeDomainError(w, err, "failed to respond to invite")
		return
	}

	auditLog(r, "notification.respond", "notification", id, "decision", req.Action)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": req.Action + "ed",
		"team":   joined,
	})
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *notificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	if err := h.store.MarkRead(r.Context(), chi.URLParam(r, "id"), u.ID); err != nil {
		writeDomainError(w, err, "failed to mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *notificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	updated, err := h.store.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err, "failed to mark notifications read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
