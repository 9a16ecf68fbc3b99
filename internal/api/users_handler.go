package api

import (
	"net/http"

	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/user"
)

// usersHandler groups profile HTTP handlers.
type usersHandler struct {
	store *user.Store
}

func newUsersHandler(store *user.Store) *usersHandler {
	return &usersHandler{store: store}
}

// GetProfile handles GET /api/v1/users/me.
func (h *usersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	full, err := h.store.GetByID(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// UpdateProfile handles PATCH /api/v1/users/me — display name, password,
// and notification preferences.
func (h *usersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req user.UpdateUserInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "name cannot be empty")
		return
	}
	if req.Password != nil && len(*req.Password) < minPasswordLength {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 8 characters")
		return
	}

	updated, err := h.store.Update(r.Context(), u.ID, req)
	if err != nil {
		writeDomainError(w, err, "failed to update user")
		return
	}

	auditLog(r, "user.update", "user", u.ID)
	writeJSON(w, http.StatusOK, updated)
}
