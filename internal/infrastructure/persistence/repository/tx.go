// Package repository implements the persistence ports over SQLite.
// Repositories join a surrounding transaction through the request context,
// so a service's read-validate-write sequence is atomic without the
// repositories knowing about transaction boundaries.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// executor covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func extractTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

func executorFor(ctx context.Context, db *sql.DB) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db
}

// TxManager implements port.TransactionManager over a sql.DB
type TxManager struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *sql.DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithTransaction runs fn inside a transaction carried on the context. A
// nested call reuses the surrounding transaction instead of opening a new one.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := extractTx(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		m.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		m.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ port.TransactionManager = (*TxManager)(nil)
