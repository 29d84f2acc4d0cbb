package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/phrazzld/hifz/internal/store"
)

const recordColumns = `user_id, subject_id, display_name, status, progress, mastery_level,
	practice_count, last_practiced_at, next_review_at, created_at, updated_at`

const (
	getRecordQuery = `SELECT ` + recordColumns + `
	FROM memorization_records WHERE user_id = $1 AND subject_id = $2`

	listRecordsQuery = `SELECT ` + recordColumns + `
	FROM memorization_records WHERE user_id = $1 ORDER BY subject_id`

	listUsersQuery = `SELECT DISTINCT user_id FROM memorization_records ORDER BY user_id`

	lockKeyQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	upsertRecordQuery = `INSERT INTO memorization_records (` + recordColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id, subject_id) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		status = EXCLUDED.status,
		progress = EXCLUDED.progress,
		mastery_level = EXCLUDED.mastery_level,
		practice_count = EXCLUDED.practice_count,
		last_practiced_at = EXCLUDED.last_practiced_at,
		next_review_at = EXCLUDED.next_review_at,
		updated_at = EXCLUDED.updated_at`
)

// PostgresMemorizationStore implements the store.MemorizationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMemorizationStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMemorizationStore creates a new PostgreSQL implementation of the MemorizationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresMemorizationStore(db *sql.DB, logger *slog.Logger) *PostgresMemorizationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMemorizationStore{
		db:     db,
		logger: logger.With(slog.String("component", "memorization_store")),
	}
}

// Ensure PostgresMemorizationStore implements store.MemorizationStore interface
var _ store.MemorizationStore = (*PostgresMemorizationStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.MemorizationRecord, error) {
	var (
		r                  domain.MemorizationRecord
		status             string
		lastPracticed, due sql.NullTime
	)
	err := row.Scan(
		&r.UserID, &r.SubjectID, &r.DisplayName, &status,
		&r.Progress, &r.MasteryLevel, &r.PracticeCount,
		&lastPracticed, &due, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.MemorizationStatus(status)
	if lastPracticed.Valid {
		t := lastPracticed.Time
		r.LastPracticedAt = &t
	}
	if due.Valid {
		t := due.Time
		r.NextReviewAt = &t
	}
	return &r, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func getRecord(ctx context.Context, q store.DBTX, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error) {
	r, err := scanRecord(q.QueryRowContext(ctx, getRecordQuery, userID, subjectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return r, nil
}

// Get implements store.MemorizationStore.Get
func (s *PostgresMemorizationStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
) (*domain.MemorizationRecord, error) {
	r, err := getRecord(ctx, s.db, userID, subjectID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get memorization record",
			slog.String("user_id", userID.String()),
			slog.Int("subject_id", subjectID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "get", "query failed", err)
	}
	return r, err
}

// List implements store.MemorizationStore.List
func (s *PostgresMemorizationStore) List(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error) {
	rows, err := s.db.QueryContext(ctx, listRecordsQuery, userID)
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records := make([]*domain.MemorizationRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "scan failed", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "iteration failed", MapError(err))
	}
	return records, nil
}

// ListUsers implements store.MemorizationStore.ListUsers
func (s *PostgresMemorizationStore) ListUsers(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	users := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "scan failed", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "iteration failed", MapError(err))
	}
	return users, nil
}

func recordLockKey(userID uuid.UUID, subjectID int) string {
	return fmt.Sprintf("memorization_record:%s:%d", userID, subjectID)
}

// Modify implements store.MemorizationStore.Modify
func (s *PostgresMemorizationStore) Modify(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
	fn store.RecordModifier,
) (*domain.MemorizationRecord, error) {
	var result *domain.MemorizationRecord

	err := store.RunInTransaction(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockKeyQuery, recordLockKey(userID, subjectID)); err != nil {
			return MapError(err)
		}

		current, err := getRecord(ctx, tx, userID, subjectID)
		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}

		next, err := store.ApplyRecordModifier(current, userID, subjectID, fn)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, upsertRecordQuery,
			next.UserID, next.SubjectID, next.DisplayName, string(next.Status),
			next.Progress, next.MasteryLevel, next.PracticeCount,
			nullTime(next.LastPracticedAt), nullTime(next.NextReviewAt),
			next.CreatedAt, next.UpdatedAt,
		)
		if err != nil {
			return MapError(err)
		}
		result = next
		return nil
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("memorization record modification aborted",
			slog.String("user_id", userID.String()),
			slog.Int("subject_id", subjectID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}
