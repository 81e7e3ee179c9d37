package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = apperrors.ErrNotFound
	// ErrDatabase wraps unexpected database failures
	ErrDatabase = errors.New("database error")
)

// Tx is the transaction handle repositories hand back to services. The
// concrete value is an *sqlx.Tx; in-memory test doubles implement the same
// interface.
type Tx interface {
	Commit() error
	Rollback() error
}

// sqlxTx unwraps a Tx back to the concrete *sqlx.Tx
func sqlxTx(tx Tx) (*sqlx.Tx, error) {
	t, ok := tx.(*sqlx.Tx)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected transaction type %T", ErrDatabase, tx)
	}
	return t, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// begin starts a transaction on db
func begin(ctx context.Context, db *sqlx.DB) (Tx, error) {
	tx, err := db.BeginTxx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", ErrDatabase, err)
	}

	return tx, nil
}
