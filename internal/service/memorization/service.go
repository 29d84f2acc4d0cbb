// Package memorization provides the engine operations over a store.Store:
// recording practice, scheduling reviews, summarizing progress and
// tracking daily streaks.
package memorization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
)

// Service is the memorization engine.
type Service interface {
	// RecordPractice applies one practice session scored at accuracy to the
	// user's record for subjectID, creating the record on first practice.
	//
	// Returns:
	//   - (*domain.MemorizationRecord, nil): the persisted record
	//   - (nil, ErrInvalidUser / domain.ErrInvalidSubjectID): bad identifiers
	//   - (nil, *ServiceError): the store failed; nothing was written
	//
	// Accuracy outside 0-100 is clamped and logged.
	RecordPractice(
		ctx context.Context,
		userID uuid.UUID,
		subjectID int,
		accuracy int,
	) (*domain.MemorizationRecord, error)

	// StartSubject creates a learning record scheduled for its first review.
	// An existing record is returned unchanged.
	StartSubject(
		ctx context.Context,
		userID uuid.UUID,
		subjectID int,
		displayName string,
	) (*domain.MemorizationRecord, error)

	// GetRecord returns one record or ErrRecordNotFound.
	GetRecord(ctx context.Context, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error)

	// ListRecords returns the user's records ordered by subject.
	ListRecords(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error)

	// GetDueReviews returns the subjects due as of asOf, most urgent first.
	// A zero asOf means now. No due subjects yields an empty slice.
	GetDueReviews(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]domain.ReviewEntry, error)

	// GetSummary aggregates the user's records and streak. It never writes.
	GetSummary(ctx context.Context, userID uuid.UUID) (domain.Summary, error)

	// RecordDailyActivity advances the user's streak for the calendar day
	// containing asOf in the configured location. A zero asOf means now.
	// Repeating it on the same day has no effect.
	RecordDailyActivity(ctx context.Context, userID uuid.UUID, asOf time.Time) (*domain.StreakState, error)
}

// Common sentinel errors for Service
var (
	// ErrInvalidUser indicates a nil user ID.
	ErrInvalidUser = errors.New("user ID cannot be empty")

	// ErrRecordNotFound indicates the user has no record for the subject.
	ErrRecordNotFound = errors.New("memorization record not found")

	// ErrNilStore is returned by NewService when no store is supplied.
	ErrNilStore = errors.New("store cannot be nil")
)

// ServiceError wraps errors from the memorization service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_practice")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("memorization service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("memorization service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// It returns known sentinel errors directly without wrapping.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, store.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, ErrInvalidUser):
		return ErrInvalidUser
	case errors.Is(err, domain.ErrInvalidSubjectID):
		return domain.ErrInvalidSubjectID
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
