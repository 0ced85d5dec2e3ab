package repository

import (
	"context"
	"database/sql"

	"github.com/bachkhoacons/asset-approval/pkg/database"
)

type txKey struct{}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against whichever the context carries.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager implements port.TransactionManager over the sqlite database.
// The open transaction rides in the context so every repository call made
// inside fn joins it.
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a new TxManager
func NewTxManager(db *database.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn inside a transaction. Returning an error rolls
// back; nesting reuses the outer transaction.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	return m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// execer resolves the querier for a context: the enclosing transaction if
// one is open, the bare connection otherwise
func execer(ctx context.Context, db *database.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}
