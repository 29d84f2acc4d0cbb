package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
)

// StreakModifier computes the next streak state. current is nil when the
// user has no recorded activity.
type StreakModifier func(current *domain.StreakState) (*domain.StreakState, error)

// StreakStore defines the interface for per-user streak persistence.
type StreakStore interface {
	// Get retrieves the user's streak state.
	// Returns ErrStreakNotFound if no activity was ever recorded.
	Get(ctx context.Context, userID uuid.UUID) (*domain.StreakState, error)

	// Modify atomically reads, transforms and writes the user's streak.
	Modify(ctx context.Context, userID uuid.UUID, fn StreakModifier) (*domain.StreakState, error)
}

// Store bundles the collections the engine reads and writes for a user.
type Store interface {
	Memorization() MemorizationStore
	Streaks() StreakStore
	Close() error
}
