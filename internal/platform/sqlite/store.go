package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
)

type recordRow struct {
	UserID          string       `db:"user_id"`
	SubjectID       int          `db:"subject_id"`
	DisplayName     string       `db:"display_name"`
	Status          string       `db:"status"`
	Progress        int          `db:"progress"`
	MasteryLevel    int          `db:"mastery_level"`
	PracticeCount   int          `db:"practice_count"`
	LastPracticedAt sql.NullTime `db:"last_practiced_at"`
	NextReviewAt    sql.NullTime `db:"next_review_at"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (r recordRow) toDomain() (*domain.MemorizationRecord, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user_id %q: %w", r.UserID, err)
	}
	rec := &domain.MemorizationRecord{
		UserID:        userID,
		SubjectID:     r.SubjectID,
		DisplayName:   r.DisplayName,
		Status:        domain.MemorizationStatus(r.Status),
		Progress:      r.Progress,
		MasteryLevel:  r.MasteryLevel,
		PracticeCount: r.PracticeCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.LastPracticedAt.Valid {
		t := r.LastPracticedAt.Time
		rec.LastPracticedAt = &t
	}
	if r.NextReviewAt.Valid {
		t := r.NextReviewAt.Time
		rec.NextReviewAt = &t
	}
	return rec, nil
}

func fromDomain(r *domain.MemorizationRecord) recordRow {
	row := recordRow{
		UserID:        r.UserID.String(),
		SubjectID:     r.SubjectID,
		DisplayName:   r.DisplayName,
		Status:        string(r.Status),
		Progress:      r.Progress,
		MasteryLevel:  r.MasteryLevel,
		PracticeCount: r.PracticeCount,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.LastPracticedAt != nil {
		row.LastPracticedAt = sql.NullTime{Time: r.LastPracticedAt.UTC(), Valid: true}
	}
	if r.NextReviewAt != nil {
		row.NextReviewAt = sql.NullTime{Time: r.NextReviewAt.UTC(), Valid: true}
	}
	return row
}

type streakRow struct {
	UserID           string         `db:"user_id"`
	CurrentStreak    int            `db:"current_streak"`
	LongestStreak    int            `db:"longest_streak"`
	LastActivityDate sql.NullString `db:"last_activity_date"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r streakRow) toDomain() (*domain.StreakState, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user_id %q: %w", r.UserID, err)
	}
	st := &domain.StreakState{
		UserID:        userID,
		CurrentStreak: r.CurrentStreak,
		LongestStreak: r.LongestStreak,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.LastActivityDate.Valid {
		d, err := civil.ParseDate(r.LastActivityDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_activity_date %q: %w", r.LastActivityDate.String, err)
		}
		st.LastActivityDate = &d
	}
	return st, nil
}

const (
	selectRecord = `SELECT * FROM memorization_records WHERE user_id = ? AND subject_id = ?`
	selectList   = `SELECT * FROM memorization_records WHERE user_id = ? ORDER BY subject_id`
	selectUsers  = `SELECT DISTINCT user_id FROM memorization_records ORDER BY user_id`
	upsertRecord = `INSERT INTO memorization_records (
		user_id, subject_id, display_name, status, progress, mastery_level,
		practice_count, last_practiced_at, next_review_at, created_at, updated_at
	) VALUES (
		:user_id, :subject_id, :display_name, :status, :progress, :mastery_level,
		:practice_count, :last_practiced_at, :next_review_at, :created_at, :updated_at
	) ON CONFLICT (user_id, subject_id) DO UPDATE SET
		display_name = excluded.display_name,
		status = excluded.status,
		progress = excluded.progress,
		mastery_level = excluded.mastery_level,
		practice_count = excluded.practice_count,
		last_practiced_at = excluded.last_practiced_at,
		next_review_at = excluded.next_review_at,
		updated_at = excluded.updated_at`

	selectStreak = `SELECT * FROM streaks WHERE user_id = ?`
	upsertStreak = `INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, updated_at)
	VALUES (:user_id, :current_streak, :longest_streak, :last_activity_date, :updated_at)
	ON CONFLICT (user_id) DO UPDATE SET
		current_streak = excluded.current_streak,
		longest_streak = excluded.longest_streak,
		last_activity_date = excluded.last_activity_date,
		updated_at = excluded.updated_at`
)

// Store implements store.Store on SQLite. Writes run in BEGIN IMMEDIATE
// transactions over a single connection.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an opened database. The Store owns db and closes it in Close.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With(slog.String("component", "sqlite_store"))}
}

// Memorization implements store.Store.
func (s *Store) Memorization() store.MemorizationStore { return (*memorizationStore)(s) }

// Streaks implements store.Store.
func (s *Store) Streaks() store.StreakStore { return (*streakStore)(s) }

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn in a transaction wrapped for sqlx access.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return store.RunInTransaction(ctx, s.db.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&sqlx.Tx{Tx: tx, Mapper: s.db.Mapper})
	})
}

type memorizationStore Store

func getRecord(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error) {
	var row recordRow
	err := sqlx.GetContext(ctx, q, &row, selectRecord, userID.String(), subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "get", "query failed", err)
	}
	return row.toDomain()
}

func (m *memorizationStore) Get(ctx context.Context, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error) {
	return getRecord(ctx, m.db, userID, subjectID)
}

func (m *memorizationStore) List(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error) {
	var rows []recordRow
	if err := m.db.SelectContext(ctx, &rows, selectList, userID.String()); err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "query failed", err)
	}
	out := make([]*domain.MemorizationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "decode failed", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memorizationStore) ListUsers(ctx context.Context) ([]uuid.UUID, error) {
	var ids []string
	if err := m.db.SelectContext(ctx, &ids, selectUsers); err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "query failed", err)
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "decode failed", err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memorizationStore) Modify(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
	fn store.RecordModifier,
) (*domain.MemorizationRecord, error) {
	var result *domain.MemorizationRecord
	err := (*Store)(m).withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getRecord(ctx, tx, userID, subjectID)
		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}
		next, err := store.ApplyRecordModifier(current, userID, subjectID, fn)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertRecord, fromDomain(next)); err != nil {
			return store.NewStoreError(store.EntityMemorizationRecord, "modify", "write failed", err)
		}
		result = next
		return nil
	})
	if err != nil {
		m.logger.DebugContext(ctx, "memorization record modification aborted",
			slog.String("user_id", userID.String()),
			slog.Int("subject_id", subjectID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}

type streakStore Store

func getStreak(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (*domain.StreakState, error) {
	var row streakRow
	err := sqlx.GetContext(ctx, q, &row, selectStreak, userID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrStreakNotFound
	}
	if err != nil {
		return nil, store.NewStoreError(store.EntityStreakState, "get", "query failed", err)
	}
	return row.toDomain()
}

func (s *streakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StreakState, error) {
	return getStreak(ctx, s.db, userID)
}

func (s *streakStore) Modify(ctx context.Context, userID uuid.UUID, fn store.StreakModifier) (*domain.StreakState, error) {
	var result *domain.StreakState
	err := (*Store)(s).withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getStreak(ctx, tx, userID)
		if err != nil && !errors.Is(err, store.ErrStreakNotFound) {
			return err
		}
		next, err := store.ApplyStreakModifier(current, userID, fn)
		if err != nil {
			return err
		}
		row := streakRow{
			UserID:        next.UserID.String(),
			CurrentStreak: next.CurrentStreak,
			LongestStreak: next.LongestStreak,
			UpdatedAt:     next.UpdatedAt.UTC(),
		}
		if next.LastActivityDate != nil {
			row.LastActivityDate = sql.NullString{String: next.LastActivityDate.String(), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, upsertStreak, row); err != nil {
			return store.NewStoreError(store.EntityStreakState, "modify", "write failed", err)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
