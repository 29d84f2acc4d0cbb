package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/hifz/internal/store"
)

// SQLSTATE codes the stores translate.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNotNullViolation     = "23502"
	codeInvalidText          = "22P02"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

var sqlStateErrors = map[string]error{
	codeUniqueViolation:      store.ErrDuplicate,
	codeCheckViolation:       store.ErrInvalidEntity,
	codeNotNullViolation:     store.ErrInvalidEntity,
	codeInvalidText:          store.ErrInvalidEntity,
	codeNumericOutOfRange:    store.ErrInvalidEntity,
	codeSerializationFailure: store.ErrConflict,
	codeDeadlockDetected:     store.ErrConflict,
	codeLockNotAvailable:     store.ErrConflict,
}

// MapError translates driver errors into store sentinels, keeping the
// original in the chain. Unrecognized errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	sentinel, ok := sqlStateErrors[pgErr.Code]
	if !ok {
		return err
	}
	if target := violationTarget(pgErr); target != "" {
		return fmt.Errorf("%w: %s: %v", sentinel, target, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// violationTarget names the constraint or column an integrity error refers to.
func violationTarget(pgErr *pgconn.PgError) string {
	switch {
	case pgErr.ConstraintName != "":
		return "constraint " + pgErr.ConstraintName
	case pgErr.ColumnName != "":
		return "column " + pgErr.ColumnName
	default:
		return ""
	}
}
