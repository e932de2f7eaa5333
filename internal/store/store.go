// Package store holds the storage-level primitives shared by the repositories:
// driver-independent detection of unique-constraint violations and the
// insert-or-fetch pattern used for every idempotent write.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrDuplicate marks a write rejected by a unique or primary key constraint.
var ErrDuplicate = errors.New("duplicate key")

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueMsgToken = "UNIQUE constraint failed"
)

// IsUniqueViolation reports whether err comes from a unique/primary key conflict
// in any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return strings.Contains(err.Error(), sqliteUniqueMsgToken)
}

// Translate rewrites driver-level unique violations into ErrDuplicate, keeping
// the original error in the chain.
func Translate(err error) error {
	if err == nil || errors.Is(err, ErrDuplicate) {
		return err
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// InsertOrFetch runs insert and, when it loses to a unique constraint, returns
// the row that already holds the key instead of failing. created is true only
// when this call wrote the row. Errors other than ErrDuplicate from insert, and
// any error from fetch, are returned as is.
//
// The pattern needs no multi-statement transaction: whichever caller loses the
// race re-reads the winner's row.
func InsertOrFetch[T any](
	ctx context.Context,
	insert func(ctx context.Context) (T, error),
	fetch func(ctx context.Context) (T, error),
) (row T, created bool, err error) {
	row, err = insert(ctx)
	if err == nil {
		return row, true, nil
	}
	if !IsUniqueViolation(err) {
		var zero T
		return zero, false, err
	}

	row, err = fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("fetch existing row after conflict: %w", err)
	}
	return row, false, nil
}
