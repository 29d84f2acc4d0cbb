package postgres

import (
	"database/sql"
	"log/slog"

	"github.com/phrazzld/hifz/internal/store"
)

// Store bundles the PostgreSQL stores behind store.Store.
type Store struct {
	db           *sql.DB
	memorization *PostgresMemorizationStore
	streaks      *PostgresStreakStore
}

var _ store.Store = (*Store)(nil)

// NewStore wraps db. The returned Store owns db and closes it in Close.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:           db,
		memorization: NewPostgresMemorizationStore(db, logger),
		streaks:      NewPostgresStreakStore(db, logger),
	}
}

// Memorization implements store.Store.
func (s *Store) Memorization() store.MemorizationStore { return s.memorization }

// Streaks implements store.Store.
func (s *Store) Streaks() store.StreakStore { return s.streaks }

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }
