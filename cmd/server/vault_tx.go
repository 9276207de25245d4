package main

import (
	"context"
	"database/sql"
	"time"

	"tokenvault/internal/token"
	vaultservice "tokenvault/internal/vault/service"
	vaultstore "tokenvault/internal/vault/store"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	txcontext "tokenvault/pkg/platform/tx"
)

const defaultVaultTxTimeout = 5 * time.Second

// vaultPostgresTx runs a vault unit of work in one SQL transaction. The
// access row is locked with FOR UPDATE on first read; the ledger and the
// audit outbox join the transaction through the context.
type vaultPostgresTx struct {
	db      *sql.DB
	ledger  *token.PostgresLedger
	timeout time.Duration
}

func newVaultPostgresTx(db *sql.DB, ledger *token.PostgresLedger, timeout time.Duration) *vaultPostgresTx {
	return &vaultPostgresTx{db: db, ledger: ledger, timeout: timeout}
}

func (t *vaultPostgresTx) RunInTx(ctx context.Context, _ id.Address, fn func(ctx context.Context, store vaultservice.Store, tokens vaultservice.Transferer) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to begin vault transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), vaultstore.NewPostgresTx(tx), t.ledger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit vault transaction")
	}
	return nil
}
