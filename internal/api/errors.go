package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/hifz/internal/api/shared"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/service/memorization"
	"github.com/phrazzld/hifz/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, memorization.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidSubjectID),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidAccuracy),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, memorization.ErrRecordNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, memorization.ErrInvalidUser), errors.Is(err, domain.ErrInvalidID):
		return "Invalid user ID"
	case errors.Is(err, domain.ErrInvalidSubjectID):
		return "Subject ID must be between 1 and 114"
	case errors.Is(err, domain.ErrInvalidAccuracy):
		return "Invalid accuracy"
	case errors.Is(err, memorization.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		return "Memorization record not found"
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, domain.ErrValidation):
		return "Invalid entity data"
	case errors.Is(err, store.ErrConflict):
		return "Concurrent update, please retry"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a message naming the
// first offending field without echoing the rejected value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted details. fallback replaces the generic message on 5xx.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// HandleValidationError responds 400 with a sanitized validation message.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}
