package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const DBTxKey contextKey = "db_tx"

// WithTx begins a transaction on the tenant connection carried by ctx and
// returns a derived context that carries the open transaction. Repositories
// resolve this transaction via TxFromContext, so every query issued with the
// returned context participates in the same transaction.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	conn := ConnFromContext(ctx)
	if conn == nil {
		return ctx, nil, fmt.Errorf("no database connection in context")
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}

	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// TxFromContext retrieves the open transaction from context, or nil if the
// context does not carry one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// RunInTx executes fn inside a single database transaction. fn receives a
// context carrying the transaction; any error from fn rolls everything back.
// Nested calls reuse the already-open transaction rather than starting a new one.
func RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	txCtx, tx, err := WithTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
