package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/team"
)

// teamsHandler groups team-related HTTP handlers.
type teamsHandler struct {
	teams *team.Service
}

func newTeamsHandler(teams *team.Service) *teamsHandler {
	return &teamsHandler{teams: teams}
}

// ListTeams handles GET /api/v1/teams — the caller's teams.
func (h *teamsHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	teams, err := h.teams.ListForUser(r.Context(), u)
	if err != nil {
		writeDomainError(w, err, "failed to list teams")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// CreateTeam handles POST /api/v1/teams.
func (h *teamsHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	created, err := h.teams.Create(r.Context(), req.Name, u)
	if err != nil {
		writeDomainError(w, err, "failed to create team")
		return
	}

	auditLog(r, "team.create", "team", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// GetTeam handles GET /api/v1/teams/{id}.
func (h *teamsHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	t, err := h.teams.Get(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, err, "failed to load team")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// JoinByCode handles POST /api/v1/teams/join. The caller lands in the
// pending set; the owner has to accept before membership takes effect.
func (h *teamsHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	t, err := h.teams.JoinByCode(r.Context(), req.Code, u)
	if err != nil {
		writeDomainError(w, err, "failed to submit join request")
		return
	}

	auditLog(r, "team.join_request", "team", t.ID)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "pending",
		"team":   map[string]string{"id": t.ID, "name": t.Name},
	})
}

// RenameTeam handles PUT /api/v1/teams/{id}.
func (h *teamsHandler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.teams.Rename(r.Context(), id, req.Name, u)
	if err != nil {
		writeDomainError(w, err, "failed to rename team")
		return
	}

	auditLog(r, "team.rename", "team", id)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTeam handles DELETE /api/v1/teams/{id}.
func (h *teamsHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.teams.Delete(r.Context(), id, u); err != nil {
		writeDomainError(w, err, "failed to delete team")
		return
	}

	auditLog(r, "team.delete", "team", id)
	w.WriteHeader(http.StatusNoContent)
}

// InviteMember handles POST /api/v1/teams/{id}/invites.
func (h *teamsHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email is required")
		return
	}

	id := chi.URLParam(r, "id")
	n, err := h.teams.Invite(r.Context(), id, req.Email, u)
	if err != nil {
		writeDomainError(w, err, "failed to send invite")
		return
	}

	auditLog(r, "team.invite", "team", id, "invited_user", n.RecipientID)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

// RespondToJoinRequest handles POST /api/v1/teams/{id}/requests/{userId}.
func (h *teamsHandler) RespondToJoinRequest(w http.ResponseWriter, r *http.Request) {
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
	requesterID := chi.URLParam(r, "userId")
	updated, err := h.teams.RespondToJoinRequest(r.Context(), id, requesterID, req.Action, u)
	if err != nil {
		writeDomainError(w, err, "failed to respond to join request")
		return
	}

	auditLog(r, "team.join_response", "team", id, "requester_id", requesterID, "decision", req.Action)
	writeJSON(w, http.StatusOK, updated)
}

// RemoveMember handles DELETE /api/v1/teams/{id}/members/{userId}.
func (h *teamsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "userId")
	updated, err := h.teams.RemoveMember(r.Context(), id, memberID, u)
	if err != nil {
		writeDomainError(w, err, "failed to remove member")
		return
	}

	auditLog(r, "team.remove_member", "team", id, "member_id", memberID)
	writeJSON(w, http.StatusOK, updated)
}
