package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is implemented by *pgxpool.Pool and pgx.Tx, so read paths can run
// either standalone or inside the caller's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// planningLockKey identifies the advisory lock that serializes optimization runs.
const planningLockKey int64 = 0x77_6d_73_6f_70_74 // "wmsopt"

// LockPlanningTx takes the transaction-scoped advisory lock for optimization
// runs. It blocks until any concurrent run commits or rolls back.
func LockPlanningTx(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, planningLockKey)
	return err
}

// notFoundIfNone turns a zero-row write into pgx.ErrNoRows.
func notFoundIfNone(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
