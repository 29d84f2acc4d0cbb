package memorization

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/metrics"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/phrazzld/hifz/internal/platform/memory"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = 24 * time.Hour

// clock is a settable time source for Config.Now.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, cfg Config) (Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore(nil)
	svc, err := NewService(st, cfg, nil)
	require.NoError(t, err)
	return svc, st
}

// seed stores a learning record with the given counters.
func seed(t *testing.T, st store.Store, userID uuid.UUID, subjectID, progress, mastery int, due time.Time) {
	t.Helper()
	_, err := st.Memorization().Modify(context.Background(), userID, subjectID,
		func(*domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			return &domain.MemorizationRecord{
				UserID:       userID,
				SubjectID:    subjectID,
				DisplayName:  domain.DefaultDisplayName(subjectID),
				Status:       domain.StatusLearning,
				Progress:     progress,
				MasteryLevel: mastery,
				NextReviewAt: &due,
				CreatedAt:    due,
				UpdatedAt:    due,
			}, nil
		})
	require.NoError(t, err)
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, Config{}, nil)
	assert.ErrorIs(t, err, ErrNilStore)

	svc, err := NewService(memory.NewStore(nil), Config{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRecordPractice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first excellent practice creates the record", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		svc, _ := newTestService(t, Config{Now: clk.Now})
		userID := uuid.New()

		rec, err := svc.RecordPractice(ctx, userID, 1, 95)
		require.NoError(t, err)

		assert.Equal(t, 1, rec.MasteryLevel)
		assert.Equal(t, 10, rec.Progress)
		assert.Equal(t, domain.StatusLearning, rec.Status)
		assert.Equal(t, 1, rec.PracticeCount)
		assert.Equal(t, "Surah 1", rec.DisplayName)
		require.NotNil(t, rec.NextReviewAt)
		assert.Equal(t, clk.Now().Add(3*day), *rec.NextReviewAt)

		stored, err := svc.GetRecord(ctx, userID, 1)
		require.NoError(t, err)
		assert.Equal(t, rec.Progress, stored.Progress)
	})

	t.Run("mastery is reached", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		svc, st := newTestService(t, Config{Now: clk.Now})
		userID := uuid.New()
		seed(t, st, userID, 18, 95, 3, clk.Now().Add(-day))

		rec, err := svc.RecordPractice(ctx, userID, 18, 92)
		require.NoError(t, err)

		assert.Equal(t, 100, rec.Progress)
		assert.Equal(t, 4, rec.MasteryLevel)
		assert.Equal(t, domain.StatusMastered, rec.Status)
	})

	t.Run("poor practice loses progress", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		svc, st := newTestService(t, Config{Now: clk.Now})
		userID := uuid.New()
		seed(t, st, userID, 36, 40, 0, clk.Now())

		var rec *domain.MemorizationRecord
		var err error
		for range 3 {
			rec, err = svc.RecordPractice(ctx, userID, 36, 60)
			require.NoError(t, err)
		}

		assert.Equal(t, 25, rec.Progress)
		assert.Equal(t, domain.StatusLearning, rec.Status)
		assert.Equal(t, 3, rec.PracticeCount)
	})

	t.Run("invalid identifiers", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, Config{})

		_, err := svc.RecordPractice(ctx, uuid.Nil, 1, 90)
		assert.ErrorIs(t, err, ErrInvalidUser)

		_, err = svc.RecordPractice(ctx, uuid.New(), 0, 90)
		assert.ErrorIs(t, err, domain.ErrInvalidSubjectID)

		_, err = svc.RecordPractice(ctx, uuid.New(), 115, 90)
		assert.ErrorIs(t, err, domain.ErrInvalidSubjectID)
	})

	t.Run("out of range accuracy is clamped and logged", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, Config{})
		logCtx, buf := logger.TestContext(t)

		rec, err := svc.RecordPractice(logCtx, uuid.New(), 2, 150)
		require.NoError(t, err)

		assert.Equal(t, 1, rec.MasteryLevel)
		assert.Equal(t, 10, rec.Progress)
		logger.AssertLogContains(t, buf, "accuracy out of range")
		logger.AssertLogField(t, buf, "level", "WARN")
	})
}

func TestConcurrentPracticeIsSerialized(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, Config{})
	userID := uuid.New()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPractice(context.Background(), userID, 67, 75)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := svc.GetRecord(context.Background(), userID, 67)
	require.NoError(t, err)
	assert.Equal(t, 20, rec.PracticeCount)
	assert.Equal(t, 100, rec.Progress)
}

func TestStartSubject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	svc, _ := newTestService(t, Config{Now: clk.Now})
	userID := uuid.New()

	rec, err := svc.StartSubject(ctx, userID, 112, "Al-Ikhlas")
	require.NoError(t, err)
	assert.Equal(t, "Al-Ikhlas", rec.DisplayName)
	assert.Equal(t, domain.StatusLearning, rec.Status)
	assert.Equal(t, clk.Now().Add(day), *rec.NextReviewAt)

	_, err = svc.RecordPractice(ctx, userID, 112, 95)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	again, err := svc.StartSubject(ctx, userID, 112, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "Al-Ikhlas", again.DisplayName)
	assert.Equal(t, 1, again.PracticeCount, "existing record must be returned unchanged")
}

func TestGetRecordNotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, Config{})

	_, err := svc.GetRecord(context.Background(), uuid.New(), 5)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetDueReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	svc, st := newTestService(t, Config{Now: clk.Now})
	userID := uuid.New()

	seed(t, st, userID, 2, 30, 1, clk.Now().Add(-day))
	seed(t, st, userID, 18, 30, 1, clk.Now().Add(-10*day))
	seed(t, st, userID, 36, 30, 1, clk.Now().Add(day))

	entries, err := svc.GetDueReviews(ctx, userID, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 18, entries[0].SubjectID)
	assert.Equal(t, domain.PriorityHigh, entries[0].Priority)
	assert.Equal(t, 2, entries[1].SubjectID)
	assert.Equal(t, domain.PriorityLow, entries[1].Priority)

	later, err := svc.GetDueReviews(ctx, userID, clk.Now().Add(2*day))
	require.NoError(t, err)
	assert.Len(t, later, 3)

	none, err := svc.GetDueReviews(ctx, uuid.New(), time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecordDailyActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("gap resets the streak", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, Config{})
		userID := uuid.New()
		start := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

		var seq []int
		for _, offset := range []int{0, 1, 3} {
			st, err := svc.RecordDailyActivity(ctx, userID, start.Add(time.Duration(offset)*day))
			require.NoError(t, err)
			seq = append(seq, st.CurrentStreak)
		}

		assert.Equal(t, []int{1, 2, 1}, seq)
	})

	t.Run("same day twice counts once", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, Config{})
		userID := uuid.New()
		morning := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

		_, err := svc.RecordDailyActivity(ctx, userID, morning)
		require.NoError(t, err)
		st, err := svc.RecordDailyActivity(ctx, userID, morning.Add(12*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, st.CurrentStreak)
		assert.Equal(t, 1, st.LongestStreak)
	})

	t.Run("calendar day follows the configured location", func(t *testing.T) {
		t.Parallel()
		riyadh := time.FixedZone("AST", 3*60*60)
		svc, _ := newTestService(t, Config{Location: riyadh})
		userID := uuid.New()

		// 22:30 UTC on the 1st is already the 2nd in Riyadh
		_, err := svc.RecordDailyActivity(ctx, userID, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		st, err := svc.RecordDailyActivity(ctx, userID, time.Date(2026, 10, 1, 22, 30, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, 2, st.CurrentStreak)
	})

	t.Run("nil user", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, Config{})
		_, err := svc.RecordDailyActivity(ctx, uuid.Nil, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidUser)
	})
}

func TestStreakOnPractice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	svc, st := newTestService(t, Config{Now: clk.Now, StreakOnPractice: true})
	userID := uuid.New()

	_, err := svc.RecordPractice(ctx, userID, 1, 80)
	require.NoError(t, err)
	clk.Advance(day)
	_, err = svc.RecordPractice(ctx, userID, 2, 80)
	require.NoError(t, err)

	streak, err := st.Streaks().Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)
}

func TestGetSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	svc, st := newTestService(t, Config{Now: clk.Now})
	userID := uuid.New()

	empty, err := svc.GetSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{}, empty)

	seed(t, st, userID, 18, 95, 3, clk.Now())
	_, err = svc.RecordPractice(ctx, userID, 18, 92) // mastered
	require.NoError(t, err)
	_, err = svc.RecordPractice(ctx, userID, 1, 95) // learning
	require.NoError(t, err)
	_, err = svc.StartSubject(ctx, userID, 2, "")
	require.NoError(t, err)
	_, err = svc.RecordDailyActivity(ctx, userID, clk.Now())
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, domain.Summary{
		TotalSubjects:         3,
		Learning:              2,
		Mastered:              1,
		TotalPracticeSessions: 2,
		CurrentStreak:         1,
		LongestStreak:         1,
	}, summary)
}

func TestServiceRecordsMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc, _ := newTestService(t, Config{Metrics: metrics.New(reg)})
	userID := uuid.New()

	_, err := svc.RecordPractice(ctx, userID, 1, 95)
	require.NoError(t, err)
	_, err = svc.RecordDailyActivity(ctx, userID, time.Time{})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	assert.True(t, names["hifz_practice_sessions_total"])
	assert.True(t, names["hifz_streak_updates_total"])
}

var errBackend = errors.New("backend unavailable")

// failingStore fails every operation with errBackend.
type failingStore struct{}

func (failingStore) Memorization() store.MemorizationStore { return failingStore{} }
func (failingStore) Streaks() store.StreakStore             { return failingStreaks{} }
func (failingStore) Close() error                           { return nil }

func (failingStore) Get(context.Context, uuid.UUID, int) (*domain.MemorizationRecord, error) {
	return nil, errBackend
}

func (failingStore) List(context.Context, uuid.UUID) ([]*domain.MemorizationRecord, error) {
	return nil, errBackend
}

func (failingStore) ListUsers(context.Context) ([]uuid.UUID, error) { return nil, errBackend }

func (failingStore) Modify(context.Context, uuid.UUID, int, store.RecordModifier) (*domain.MemorizationRecord, error) {
	return nil, errBackend
}

type failingStreaks struct{}

func (failingStreaks) Get(context.Context, uuid.UUID) (*domain.StreakState, error) {
	return nil, errBackend
}

func (failingStreaks) Modify(context.Context, uuid.UUID, store.StreakModifier) (*domain.StreakState, error) {
	return nil, errBackend
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, err := NewService(failingStore{}, Config{}, nil)
	require.NoError(t, err)
	userID := uuid.New()

	_, err = svc.RecordPractice(ctx, userID, 1, 90)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "record_practice", svcErr.Operation)
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.GetDueReviews(ctx, userID, time.Time{})
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.GetSummary(ctx, userID)
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.RecordDailyActivity(ctx, userID, time.Time{})
	assert.ErrorIs(t, err, errBackend)
}

func TestNewServiceError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewServiceError("op", "msg", nil))
	assert.Equal(t, ErrRecordNotFound, NewServiceError("op", "msg", store.ErrRecordNotFound))
	assert.Equal(t, context.Canceled, NewServiceError("op", "msg", context.Canceled))

	err := NewServiceError("list_records", "failed", errBackend)
	assert.EqualError(t, err, "memorization service list_records failed: failed: backend unavailable")
}
