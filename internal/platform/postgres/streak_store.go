package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
)

const (
	getStreakQuery = `SELECT user_id, current_streak, longest_streak, last_activity_date, updated_at
	FROM streaks WHERE user_id = $1`

	getStreakForUpdateQuery = getStreakQuery + ` FOR UPDATE`

	upsertStreakQuery = `INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO UPDATE SET
		current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_activity_date = EXCLUDED.last_activity_date,
		updated_at = EXCLUDED.updated_at`
)

// PostgresStreakStore implements the store.StreakStore interface.
type PostgresStreakStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStreakStore creates a new PostgreSQL implementation of the StreakStore interface.
func NewPostgresStreakStore(db *sql.DB, logger *slog.Logger) *PostgresStreakStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStreakStore{
		db:     db,
		logger: logger.With(slog.String("component", "streak_store")),
	}
}

var _ store.StreakStore = (*PostgresStreakStore)(nil)

func scanStreak(row rowScanner) (*domain.StreakState, error) {
	var (
		st   domain.StreakState
		last sql.NullTime
	)
	if err := row.Scan(&st.UserID, &st.CurrentStreak, &st.LongestStreak, &last, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if last.Valid {
		d := civil.DateOf(last.Time)
		st.LastActivityDate = &d
	}
	return &st, nil
}

func nullDate(d *civil.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.In(time.UTC), Valid: true}
}

// Get implements store.StreakStore.Get
func (s *PostgresStreakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StreakState, error) {
	st, err := scanStreak(s.db.QueryRowContext(ctx, getStreakQuery, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrStreakNotFound
	}
	if err != nil {
		return nil, store.NewStoreError(store.EntityStreakState, "get", "query failed", MapError(err))
	}
	return st, nil
}

// Modify implements store.StreakStore.Modify
func (s *PostgresStreakStore) Modify(
	ctx context.Context,
	userID uuid.UUID,
	fn store.StreakModifier,
) (*domain.StreakState, error) {
	var result *domain.StreakState

	err := store.RunInTransaction(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockKeyQuery, "streak:"+userID.String()); err != nil {
			return MapError(err)
		}

		current, err := scanStreak(tx.QueryRowContext(ctx, getStreakForUpdateQuery, userID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return MapError(err)
		}

		next, err := store.ApplyStreakModifier(current, userID, fn)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, upsertStreakQuery,
			next.UserID, next.CurrentStreak, next.LongestStreak,
			nullDate(next.LastActivityDate), next.UpdatedAt,
		); err != nil {
			return MapError(err)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
