package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/api/shared"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/queue"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.ErrInvalidID
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// getPathQueue parses the {queue} path parameter.
func getPathQueue(r *http.Request) (queue.Name, error) {
	return queue.ParseName(chi.URLParam(r, "queue"))
}

// getLimit reads the "limit" query parameter, falling back to def when it
// is absent. Values are clamped to [1, max].
func getLimit(r *http.Request, def, max int64) (int64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, domain.ErrValidation
	}
	if n > max {
		n = max
	}
	return n, nil
}

// handleUserIDAndPathUUID extracts the authenticated user and the {id} path
// parameter, writing an error response when either is missing.
func handleUserIDAndPathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
