package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/service/memorization"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid user", memorization.ErrInvalidUser, http.StatusBadRequest},
		{"invalid subject", domain.ErrInvalidSubjectID, http.StatusBadRequest},
		{"wrapped invalid id", fmt.Errorf("%w: userID", domain.ErrInvalidID), http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"record not found", memorization.ErrRecordNotFound, http.StatusNotFound},
		{"store not found", store.ErrStreakNotFound, http.StatusNotFound},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"service error", memorization.NewServiceError("op", "msg", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Memorization record not found", GetSafeErrorMessage(memorization.ErrRecordNotFound))
	assert.Equal(t, "Concurrent update, please retry", GetSafeErrorMessage(store.ErrConflict))

	leaky := errors.New("pq: relation memorization_records does not exist at /var/lib/postgres")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()
	v := validator.New()

	err := v.Struct(PracticeRequest{})
	assert.Equal(t, "Invalid Accuracy: required field", SanitizeValidationError(err))

	long := StartSubjectRequest{DisplayName: string(make([]byte, 101))}
	assert.Equal(t, "Invalid DisplayName: too large", SanitizeValidationError(v.Struct(long)))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
