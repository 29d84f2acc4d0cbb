package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
)

// RecordModifier computes the next version of a memorization record.
// current is nil when no record exists for the key. Returning an error
// aborts the modification and leaves the stored value untouched.
type RecordModifier func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error)

// MemorizationStore defines the interface for memorization record persistence.
// Records are keyed by (userID, subjectID).
type MemorizationStore interface {
	// Get retrieves the record for one subject.
	// Returns ErrRecordNotFound if the user has never practiced the subject.
	Get(ctx context.Context, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error)

	// List returns every record owned by the user ordered by subject ID.
	// A user without records yields an empty slice and no error.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error)

	// ListUsers returns the IDs of all users that own at least one record.
	ListUsers(ctx context.Context) ([]uuid.UUID, error)

	// Modify atomically reads, transforms and writes the record for one
	// subject, creating it when fn returns a record for an absent key.
	// The stored result is validated and returned.
	Modify(
		ctx context.Context,
		userID uuid.UUID,
		subjectID int,
		fn RecordModifier,
	) (*domain.MemorizationRecord, error)
}
