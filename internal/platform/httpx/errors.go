// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// Sentinel errors for handler-level failures.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Error kinds map to: not-found 404, forbidden 403, domain-state
// conflict 422 (with code), validation 400; everything else is a 500
// with no detail leaked.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err), errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsForbidden(err), errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "forbidden")
	case shared.IsValidation(err), errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
	default:
		if code, ok := shared.ConflictCode(err); ok {
			ProblemCode(w, http.StatusUnprocessableEntity, "Conflict", err.Error(), code)
			return
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
