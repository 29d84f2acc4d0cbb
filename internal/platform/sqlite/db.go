package sqlite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// schema is applied on every Open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS memorization_records (
		user_id           TEXT      NOT NULL,
		subject_id        INTEGER   NOT NULL CHECK (subject_id BETWEEN 1 AND 114),
		display_name      TEXT      NOT NULL,
		status            TEXT      NOT NULL,
		progress          INTEGER   NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		mastery_level     INTEGER   NOT NULL DEFAULT 0 CHECK (mastery_level BETWEEN 0 AND 5),
		practice_count    INTEGER   NOT NULL DEFAULT 0,
		last_practiced_at TIMESTAMP,
		next_review_at    TIMESTAMP,
		created_at        TIMESTAMP NOT NULL,
		updated_at        TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, subject_id)
	)`,
	`CREATE TABLE IF NOT EXISTS streaks (
		user_id            TEXT      PRIMARY KEY,
		current_streak     INTEGER   NOT NULL DEFAULT 0,
		longest_streak     INTEGER   NOT NULL DEFAULT 0,
		last_activity_date TEXT,
		updated_at         TIMESTAMP NOT NULL
	)`,
}

// dsn adds the connection options the store relies on: times read back in
// UTC and write transactions that take the database lock at BEGIN.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_loc=UTC&_txlock=immediate&_busy_timeout=5000"
}

// Open connects to the SQLite database at path, creating the parent
// directory and schema when missing.
func Open(path string, logger *slog.Logger) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	if logger != nil {
		logger.Info("sqlite database opened", slog.String("path", path))
	}
	return db, nil
}
