package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
)

var errNilResult = errors.New("modifier returned nil")

// ApplyRecordModifier runs fn against current and checks that the result is
// a valid record for the same key. Store implementations call it inside
// their critical section before writing.
func ApplyRecordModifier(
	current *domain.MemorizationRecord,
	userID uuid.UUID,
	subjectID int,
	fn RecordModifier,
) (*domain.MemorizationRecord, error) {
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, errNilResult)
	}
	if next.UserID != userID || next.SubjectID != subjectID {
		return nil, fmt.Errorf("%w: modifier changed the record key", ErrInvalidEntity)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	return next, nil
}

// ApplyStreakModifier is the StreakStore counterpart of ApplyRecordModifier.
func ApplyStreakModifier(
	current *domain.StreakState,
	userID uuid.UUID,
	fn StreakModifier,
) (*domain.StreakState, error) {
	var in *domain.StreakState
	if current != nil {
		c := *current
		in = &c
	}
	next, err := fn(in)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, errNilResult)
	}
	if next.UserID != userID {
		return nil, fmt.Errorf("%w: modifier changed the streak owner", ErrInvalidEntity)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	return next, nil
}
