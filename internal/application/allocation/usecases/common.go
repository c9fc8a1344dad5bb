// Package usecases implements the allocation engine: the write path that
// moves quota between campaigns, ledger entries, and redemptions. Every
// operation here runs as one storage transaction; optimistic-lock conflicts
// abort the transaction and the whole operation is retried from scratch.
package usecases

import (
	"context"
	stderrors "errors"

	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/shared/constants"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// runWithRetry executes fn inside a transaction, retrying the whole
// operation when an optimistic-lock conflict aborts it. Retries rebuild all
// state from storage, so fn must not capture aggregates loaded outside it.
func runWithRetry(ctx context.Context, txMgr db.TxManager, log logger.Interface, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= constants.AllocationTxMaxRetries; attempt++ {
		err = txMgr.RunInTransaction(ctx, fn)
		if err == nil || !errors.IsTransactionAbortedError(err) {
			return err
		}
		log.Warnw("transaction aborted by concurrent write, retrying", "operation", op, "attempt", attempt)
	}
	return err
}

// mapEntryErr translates ledger sentinel errors into the application error
// taxonomy. Unknown errors pass through unchanged.
func mapEntryErr(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ledger.ErrInsufficientQuota):
		return errors.NewInsufficientQuotaError(err.Error())
	case stderrors.Is(err, ledger.ErrInvalidAmount):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, ledger.ErrEntryNotActive):
		return errors.NewConflictError(err.Error())
	default:
		return err
	}
}
