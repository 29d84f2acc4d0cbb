package memory

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
)

type recordKey struct {
	userID    uuid.UUID
	subjectID int
}

// Store keeps records and streaks in maps guarded by a RWMutex. Modify
// additionally holds a per-key mutex for the whole read-modify-write.
type Store struct {
	mu      sync.RWMutex
	records map[recordKey]*domain.MemorizationRecord
	streaks map[uuid.UUID]*domain.StreakState

	recordLocks store.KeyedMutex[recordKey]
	streakLocks store.KeyedMutex[uuid.UUID]

	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		records: make(map[recordKey]*domain.MemorizationRecord),
		streaks: make(map[uuid.UUID]*domain.StreakState),
		logger:  logger.With(slog.String("component", "memory_store")),
	}
}

// Memorization implements store.Store.
func (s *Store) Memorization() store.MemorizationStore { return (*memorizationStore)(s) }

// Streaks implements store.Store.
func (s *Store) Streaks() store.StreakStore { return (*streakStore)(s) }

// Close implements store.Store. It is a no-op.
func (s *Store) Close() error { return nil }

type memorizationStore Store

func (m *memorizationStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
) (*domain.MemorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[recordKey{userID, subjectID}]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (m *memorizationStore) List(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.MemorizationRecord, 0)
	for k, r := range m.records {
		if k.userID == userID {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *domain.MemorizationRecord) int {
		return a.SubjectID - b.SubjectID
	})
	return out, nil
}

func (m *memorizationStore) ListUsers(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	seen := make(map[uuid.UUID]struct{})
	for k := range m.records {
		seen[k.userID] = struct{}{}
	}
	m.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out, nil
}

func (m *memorizationStore) Modify(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
	fn store.RecordModifier,
) (*domain.MemorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := recordKey{userID, subjectID}
	unlock := m.recordLocks.Lock(key)
	defer unlock()

	m.mu.RLock()
	current := m.records[key]
	m.mu.RUnlock()

	next, err := store.ApplyRecordModifier(current, userID, subjectID, fn)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.records[key] = next.Clone()
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "memorization record written",
		slog.String("user_id", userID.String()),
		slog.Int("subject_id", subjectID))
	return next, nil
}

type streakStore Store

func (s *streakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StreakState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streaks[userID]
	if !ok {
		return nil, store.ErrStreakNotFound
	}
	return copyStreak(st), nil
}

func (s *streakStore) Modify(
	ctx context.Context,
	userID uuid.UUID,
	fn store.StreakModifier,
) (*domain.StreakState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.streakLocks.Lock(userID)
	defer unlock()

	s.mu.RLock()
	current := s.streaks[userID]
	s.mu.RUnlock()

	next, err := store.ApplyStreakModifier(current, userID, fn)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.streaks[userID] = copyStreak(next)
	s.mu.Unlock()
	return copyStreak(next), nil
}

func copyStreak(s *domain.StreakState) *domain.StreakState {
	c := *s
	if s.LastActivityDate != nil {
		d := *s.LastActivityDate
		c.LastActivityDate = &d
	}
	return &c
}
