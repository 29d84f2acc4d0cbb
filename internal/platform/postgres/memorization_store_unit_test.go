package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitNow = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

func recordColumnNames() []string {
	return []string{
		"user_id", "subject_id", "display_name", "status", "progress", "mastery_level",
		"practice_count", "last_practiced_at", "next_review_at", "created_at", "updated_at",
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNewPostgresMemorizationStorePanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresMemorizationStore(nil, nil) })
}

func TestPostgresMemorizationStore_Get(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresMemorizationStore(db, nil)
		due := unitNow.Add(72 * time.Hour)

		mock.ExpectQuery(`FROM memorization_records WHERE user_id = \$1 AND subject_id = \$2`).
			WithArgs(userID, 36).
			WillReturnRows(sqlmock.NewRows(recordColumnNames()).AddRow(
				userID.String(), 36, "Ya-Sin", "reviewing", 60, 2, 9,
				unitNow, due, unitNow.Add(-240*time.Hour), unitNow,
			))

		got, err := s.Get(ctx, userID, 36)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, domain.StatusReviewing, got.Status)
		assert.Equal(t, 60, got.Progress)
		assert.Equal(t, 9, got.PracticeCount)
		require.NotNil(t, got.NextReviewAt)
		assert.True(t, due.Equal(*got.NextReviewAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresMemorizationStore(db, nil)

		mock.ExpectQuery(`FROM memorization_records`).
			WithArgs(userID, 2).
			WillReturnRows(sqlmock.NewRows(recordColumnNames()))

		_, err := s.Get(ctx, userID, 2)
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresMemorizationStore(db, nil)

		mock.ExpectQuery(`FROM memorization_records`).WillReturnError(errors.New("connection reset"))

		_, err := s.Get(ctx, userID, 2)
		require.Error(t, err)
		assert.True(t, store.IsStoreError(err))
		assert.False(t, store.IsNotFoundError(err))
	})
}

func TestPostgresMemorizationStore_Modify(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates absent record under lock", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresMemorizationStore(db, nil)
		next := unitNow.Add(24 * time.Hour)

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(recordLockKey(userID, 18)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM memorization_records WHERE user_id`).
			WithArgs(userID, 18).
			WillReturnRows(sqlmock.NewRows(recordColumnNames()))
		mock.ExpectExec(`INSERT INTO memorization_records`).
			WithArgs(userID, 18, "Surah 18", "learning", 0, 0, 0,
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := s.Modify(ctx, userID, 18, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			assert.Nil(t, current)
			return &domain.MemorizationRecord{
				UserID:       userID,
				SubjectID:    18,
				DisplayName:  "Surah 18",
				Status:       domain.StatusLearning,
				NextReviewAt: &next,
				CreatedAt:    unitNow,
				UpdatedAt:    unitNow,
			}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 18, got.SubjectID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("modifier error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresMemorizationStore(db, nil)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM memorization_records`).WillReturnRows(sqlmock.NewRows(recordColumnNames()))
		mock.ExpectRollback()

		_, err := s.Modify(ctx, userID, 1, func(*domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresMemorizationStore_List(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresMemorizationStore(db, nil)
	userID := uuid.New()

	mock.ExpectQuery(`ORDER BY subject_id`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(recordColumnNames()).
			AddRow(userID.String(), 1, "Surah 1", "learning", 0, 0, 0, nil, unitNow, unitNow, unitNow).
			AddRow(userID.String(), 2, "Surah 2", "mastered", 100, 4, 20, unitNow, unitNow, unitNow, unitNow))

	got, err := s.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].LastPracticedAt)
	assert.Equal(t, domain.StatusMastered, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
