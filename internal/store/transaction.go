package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/redact"
)

// TxBeginner starts transactions. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TxFn runs inside a transaction opened by RunInTransaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction and commits it when fn returns
// nil. An error from fn rolls the transaction back and is returned as is,
// joined with the rollback error if the rollback fails too. A panic in fn
// rolls back and then re-panics.
func RunInTransaction(ctx context.Context, db TxBeginner, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", "error", redact.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					"error", redact.Error(rbErr), "panic", p)
			} else {
				log.Error("rolled back transaction after panic", "panic", p)
			}
			// ALLOW-PANIC: re-raising the caller's panic after rollback
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				"rollback_error", redact.Error(rbErr),
				"error", redact.Error(err))
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		log.Debug("rolled back transaction", "error", redact.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", "error", redact.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
