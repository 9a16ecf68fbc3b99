package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/task"
	"github.com/tasktango/tasktango/internal/team"
	"github.com/tasktango/tasktango/internal/user"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// writeDomainError maps a service or store error onto the response taxonomy:
// 404 for missing entities, 403 for rejected permissions, 409 for duplicate
// or uniqueness conflicts, 422 for validation failures, 500 otherwise. The
// fallback message is used only for unexpected errors; mapped errors carry
// their own message.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, team.ErrNotFound),
		errors.Is(err, team.ErrNotMember),
		errors.Is(err, team.ErrNoPendingRequest),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, task.ErrForbidden),
		errors.Is(err, team.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, team.ErrAlreadyMember),
		errors.Is(err, team.ErrRequestPending),
		errors.Is(err, team.ErrCodeTaken),
		errors.Is(err, notification.ErrDuplicateInvite),
		errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, task.ErrTitleRequired),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrCommentRequired),
		errors.Is(err, team.ErrNameRequired),
		errors.Is(err, team.ErrInvalidCode),
		errors.Is(err, team.ErrInvalidAction),
		errors.Is(err, team.ErrCannotRemoveOwner):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
