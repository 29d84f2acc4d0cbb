// Package storetest holds a behavioral test suite that every store.Store
// implementation runs from its own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// baseTime has microsecond precision so every backend round-trips it exactly.
var baseTime = time.Date(2026, 10, 18, 6, 15, 30, 123456000, time.UTC)

// NewRecord builds a valid learning record for tests.
func NewRecord(userID uuid.UUID, subjectID int) *domain.MemorizationRecord {
	next := baseTime.Add(24 * time.Hour)
	return &domain.MemorizationRecord{
		UserID:       userID,
		SubjectID:    subjectID,
		DisplayName:  domain.DefaultDisplayName(subjectID),
		Status:       domain.StatusLearning,
		NextReviewAt: &next,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
}

// AssertRecordEqual compares records by value, treating equal instants in
// different locations as equal.
func AssertRecordEqual(t *testing.T, want, got *domain.MemorizationRecord) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.SubjectID, got.SubjectID)
	assert.Equal(t, want.DisplayName, got.DisplayName)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Progress, got.Progress)
	assert.Equal(t, want.MasteryLevel, got.MasteryLevel)
	assert.Equal(t, want.PracticeCount, got.PracticeCount)
	assertTimePtr(t, want.LastPracticedAt, got.LastPracticedAt)
	assertTimePtr(t, want.NextReviewAt, got.NextReviewAt)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v got %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %v got %v", want.UpdatedAt, got.UpdatedAt)
}

func assertTimePtr(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %v got %v", *want, *got)
}

func put(r *domain.MemorizationRecord) store.RecordModifier {
	return func(*domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
		return r.Clone(), nil
	}
}

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Memorization", func(t *testing.T) { runMemorization(t, newStore) })
	t.Run("Streaks", func(t *testing.T) { runStreaks(t, newStore) })
}

func open(t *testing.T, newStore Factory) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func runMemorization(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("get missing record", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		_, err := s.Get(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("modify creates and get returns it", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		rec := NewRecord(uuid.New(), 36)
		rec.DisplayName = "Ya-Sin"

		saved, err := s.Modify(ctx, rec.UserID, rec.SubjectID, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			assert.Nil(t, current)
			return rec.Clone(), nil
		})
		require.NoError(t, err)
		AssertRecordEqual(t, rec, saved)

		got, err := s.Get(ctx, rec.UserID, rec.SubjectID)
		require.NoError(t, err)
		AssertRecordEqual(t, rec, got)
	})

	t.Run("modify sees current and updates", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		rec := NewRecord(uuid.New(), 2)
		_, err := s.Modify(ctx, rec.UserID, 2, put(rec))
		require.NoError(t, err)

		practiced := baseTime.Add(2 * time.Hour)
		_, err = s.Modify(ctx, rec.UserID, 2, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			require.NotNil(t, current)
			AssertRecordEqual(t, rec, current)
			current.PracticeCount++
			current.Progress = 55
			current.Status = domain.StatusReviewing
			current.LastPracticedAt = &practiced
			current.UpdatedAt = practiced
			return current, nil
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, rec.UserID, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PracticeCount)
		assert.Equal(t, 55, got.Progress)
		assert.Equal(t, domain.StatusReviewing, got.Status)
		require.NotNil(t, got.LastPracticedAt)
		assert.True(t, practiced.Equal(*got.LastPracticedAt))
	})

	t.Run("modifier error leaves value untouched", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		rec := NewRecord(uuid.New(), 3)
		_, err := s.Modify(ctx, rec.UserID, 3, put(rec))
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = s.Modify(ctx, rec.UserID, 3, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			current.Progress = 90
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, rec.UserID, 3)
		require.NoError(t, err)
		assert.Zero(t, got.Progress)
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		rec := NewRecord(uuid.New(), 4)
		rec.Progress = 150

		_, err := s.Modify(ctx, rec.UserID, 4, put(rec))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)

		_, err = s.Get(ctx, rec.UserID, 4)
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
	})

	t.Run("list is ordered and scoped to the user", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		userID, other := uuid.New(), uuid.New()

		for _, subject := range []int{67, 1, 18} {
			_, err := s.Modify(ctx, userID, subject, put(NewRecord(userID, subject)))
			require.NoError(t, err)
		}
		_, err := s.Modify(ctx, other, 5, put(NewRecord(other, 5)))
		require.NoError(t, err)

		list, err := s.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []int{1, 18, 67}, []int{list[0].SubjectID, list[1].SubjectID, list[2].SubjectID})

		empty, err := s.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{userID, other}, users)
	})

	t.Run("concurrent modifications on one key are serialized", func(t *testing.T) {
		s := open(t, newStore).Memorization()
		userID := uuid.New()
		_, err := s.Modify(ctx, userID, 7, put(NewRecord(userID, 7)))
		require.NoError(t, err)

		const writers = 16
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Modify(ctx, userID, 7, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
					current.PracticeCount++
					return current, nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Get(ctx, userID, 7)
		require.NoError(t, err)
		assert.Equal(t, writers, got.PracticeCount)
	})
}

func runStreaks(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("get missing streak", func(t *testing.T) {
		s := open(t, newStore).Streaks()
		_, err := s.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrStreakNotFound)
	})

	t.Run("advance persists", func(t *testing.T) {
		s := open(t, newStore).Streaks()
		userID := uuid.New()
		days := []civil.Date{
			{Year: 2026, Month: 10, Day: 1},
			{Year: 2026, Month: 10, Day: 2},
			{Year: 2026, Month: 10, Day: 4},
		}

		var seq []int
		for _, d := range days {
			st, err := s.Modify(ctx, userID, func(current *domain.StreakState) (*domain.StreakState, error) {
				if current == nil {
					current = domain.NewStreakState(userID)
				}
				next, _ := current.Advance(d, baseTime)
				return next, nil
			})
			require.NoError(t, err)
			seq = append(seq, st.CurrentStreak)
		}
		assert.Equal(t, []int{1, 2, 1}, seq)

		got, err := s.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentStreak)
		assert.Equal(t, 2, got.LongestStreak)
		require.NotNil(t, got.LastActivityDate)
		assert.Equal(t, days[2], *got.LastActivityDate)
		assert.True(t, baseTime.Equal(got.UpdatedAt))
	})

	t.Run("concurrent same-day activity counts once", func(t *testing.T) {
		s := open(t, newStore).Streaks()
		userID := uuid.New()
		today := civil.Date{Year: 2026, Month: 10, Day: 18}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Modify(ctx, userID, func(current *domain.StreakState) (*domain.StreakState, error) {
					if current == nil {
						current = domain.NewStreakState(userID)
					}
					next, _ := current.Advance(today, baseTime)
					return next, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentStreak)
		assert.Equal(t, 1, got.LongestStreak)
	})
}
