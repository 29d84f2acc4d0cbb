package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/platform/logger"
)

// Path parameter names used by the routes.
const (
	UserIDParam    = "userID"
	SubjectIDParam = "subjectID"
)

// getPathUserID parses the userID path parameter.
func getPathUserID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, UserIDParam)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrInvalidID, UserIDParam)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, UserIDParam)
	}
	return id, nil
}

// getPathSubjectID parses the subjectID path parameter. The range is
// checked by the engine.
func getPathSubjectID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, SubjectIDParam))
	if err != nil {
		return 0, domain.ErrInvalidSubjectID
	}
	return id, nil
}

// parseAsOf reads the optional as_of query parameter as RFC 3339.
// A missing value yields the zero time.
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be RFC 3339", domain.ErrValidation)
	}
	return t, nil
}

// handleUserAndSubject extracts both path parameters, writing an error
// response and returning false if either is invalid.
func handleUserAndSubject(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, int, bool) {
	if log == nil {
		log = logger.FromContext(r.Context())
	}

	userID, err := getPathUserID(r)
	if err != nil {
		log.Debug("invalid user ID", slog.String("value", chi.URLParam(r, UserIDParam)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, 0, false
	}

	subjectID, err := getPathSubjectID(r)
	if err != nil {
		log.Debug("invalid subject ID", slog.String("value", chi.URLParam(r, SubjectIDParam)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, 0, false
	}

	return userID, subjectID, true
}
