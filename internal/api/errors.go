package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/resumeq/internal/api/shared"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/service/auth"
	"github.com/phrazzld/resumeq/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// handlers never decide on raw error strings.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, queue.ErrJobNotFound),
		errors.Is(err, queue.ErrUnknownQueue):
		return http.StatusNotFound

	case errors.Is(err, queue.ErrNotDeadLetter):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, queue.ErrInvalidPayload):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that leaks
// no internal detail.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Forbidden"
	case errors.Is(err, store.ErrGenerationNotFound):
		return "Generation not found"
	case errors.Is(err, queue.ErrJobNotFound):
		return "Job not found"
	case errors.Is(err, queue.ErrUnknownQueue):
		return "Queue not found"
	case errors.Is(err, queue.ErrNotDeadLetter):
		return "Job is not in the failed list"
	case errors.Is(err, queue.ErrInvalidPayload):
		return "Invalid job payload"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		return "Validation failed"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted original.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		msg = fallbackMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
