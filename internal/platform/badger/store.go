package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/store"
)

var (
	recordPrefix = []byte("rec/")
	streakPrefix = []byte("streak/")
)

func recordKey(userID uuid.UUID, subjectID int) []byte {
	return fmt.Appendf(nil, "rec/%s/%03d", userID, subjectID)
}

func userRecordPrefix(userID uuid.UUID) []byte {
	return fmt.Appendf(nil, "rec/%s/", userID)
}

func streakKey(userID uuid.UUID) []byte {
	return append(bytes.Clone(streakPrefix), userID.String()...)
}

// Store implements store.Store on BadgerDB. Writers for the same key are
// serialized in process; a conflicting transaction from elsewhere surfaces
// as store.ErrConflict.
type Store struct {
	db     *badger.DB
	gc     *gcRunner
	logger *slog.Logger

	recordLocks store.KeyedMutex[string]
	streakLocks store.KeyedMutex[uuid.UUID]
}

var _ store.Store = (*Store)(nil)

// NewStore opens the database described by cfg.
func NewStore(cfg Config) (*Store, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, logger: logger.With(slog.String("component", "badger_store"))}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = startGC(db, cfg.GCInterval, cfg.GCDiscardRatio, s.logger)
	}
	return s, nil
}

// Memorization implements store.Store.
func (s *Store) Memorization() store.MemorizationStore { return (*memorizationStore)(s) }

// Streaks implements store.Store.
func (s *Store) Streaks() store.StreakStore { return (*streakStore)(s) }

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func mapTxnError(entity, op string, err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return store.NewStoreError(entity, op, "badger transaction failed", err)
}

func readJSON(txn *badger.Txn, key []byte, v any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func writeJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

type memorizationStore Store

func (m *memorizationStore) Get(ctx context.Context, userID uuid.UUID, subjectID int) (*domain.MemorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec domain.MemorizationRecord
	var found bool
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = readJSON(txn, recordKey(userID, subjectID), &rec)
		return err
	})
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "get", "read failed", err)
	}
	if !found {
		return nil, store.ErrRecordNotFound
	}
	return &rec, nil
}

func (m *memorizationStore) List(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*domain.MemorizationRecord, 0)
	prefix := userRecordPrefix(userID)
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec domain.MemorizationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list", "scan failed", err)
	}
	return out, nil
}

func (m *memorizationStore) ListUsers(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			key := it.Item().Key()[len(recordPrefix):]
			idx := bytes.IndexByte(key, '/')
			if idx < 0 {
				continue
			}
			id, err := uuid.ParseBytes(key[:idx])
			if err != nil {
				return fmt.Errorf("corrupt record key %q: %w", it.Item().Key(), err)
			}
			if n := len(out); n == 0 || out[n-1] != id {
				out = append(out, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, store.NewStoreError(store.EntityMemorizationRecord, "list_users", "scan failed", err)
	}
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
	key := recordKey(userID, subjectID)
	unlock := m.recordLocks.Lock(string(key))
	defer unlock()

	var result *domain.MemorizationRecord
	var modErr error
	err := m.db.Update(func(txn *badger.Txn) error {
		var current *domain.MemorizationRecord
		var rec domain.MemorizationRecord
		found, err := readJSON(txn, key, &rec)
		if err != nil {
			return err
		}
		if found {
			current = &rec
		}

		next, err := store.ApplyRecordModifier(current, userID, subjectID, fn)
		if err != nil {
			modErr = err
			return err
		}
		if err := writeJSON(txn, key, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if modErr != nil {
		return nil, modErr
	}
	if err != nil {
		return nil, mapTxnError(store.EntityMemorizationRecord, "modify", err)
	}
	return result, nil
}

type streakStore Store

func (s *streakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StreakState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var st domain.StreakState
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = readJSON(txn, streakKey(userID), &st)
		return err
	})
	if err != nil {
		return nil, store.NewStoreError(store.EntityStreakState, "get", "read failed", err)
	}
	if !found {
		return nil, store.ErrStreakNotFound
	}
	return &st, nil
}

func (s *streakStore) Modify(ctx context.Context, userID uuid.UUID, fn store.StreakModifier) (*domain.StreakState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.streakLocks.Lock(userID)
	defer unlock()

	var result *domain.StreakState
	var modErr error
	err := s.db.Update(func(txn *badger.Txn) error {
		var current *domain.StreakState
		var st domain.StreakState
		found, err := readJSON(txn, streakKey(userID), &st)
		if err != nil {
			return err
		}
		if found {
			current = &st
		}

		next, err := store.ApplyStreakModifier(current, userID, fn)
		if err != nil {
			modErr = err
			return err
		}
		if err := writeJSON(txn, streakKey(userID), next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if modErr != nil {
		return nil, modErr
	}
	if err != nil {
		return nil, mapTxnError(store.EntityStreakState, "modify", err)
	}
	return result, nil
}
