package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/libledger-go/ledger"
)

// commitKind says who built the transaction being committed, which decides
// how a lost input race is reported.
type commitKind int

const (
	// commitOwn: built by the engine from a snapshot. A spent input means
	// another writer won the race, reported as ErrStoreConflict so the
	// caller can rebuild.
	commitOwn commitKind = iota

	// commitSubmitted: built by a caller with explicit inputs. A spent input
	// is the caller's double spend.
	commitSubmitted
)

// commit re-validates tx and persists it with its outputs in one store
// transaction.
func (e *Engine) commit(ctx context.Context, tx *ledger.Transaction, kind commitKind) (*ledger.Transaction, error) {
	err := e.store.Update(ctx, func(w ledger.Writer) error {
		if err := e.builder.Validate(w, tx); err != nil {
			if kind == commitOwn && errors.Is(err, ledger.ErrDoubleSpend) {
				return fmt.Errorf("%w: %v", ledger.ErrStoreConflict, err)
			}
			return err
		}

		id, err := w.SaveTransaction(tx)
		if err != nil {
			if kind == commitSubmitted && errors.Is(err, ledger.ErrStoreConflict) {
				return fmt.Errorf("%w: %v", ledger.ErrDoubleSpend, err)
			}
			return err
		}
		tx.ID = id

		for i, out := range tx.Outputs {
			_, err := w.SaveUTXO(&ledger.UTXO{
				Amount:     out.Amount,
				Owner:      out.Address,
				OriginTxID: id,
				Index:      uint32(i),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		tx.ID = 0
		if !errors.Is(err, ledger.ErrStoreConflict) {
			e.logger.Warn("commit rejected", zap.String("tx_hash", tx.Hash().String()), zap.Error(err))
		}
		return nil, err
	}

	e.logger.Info("transaction committed",
		zap.Uint64("tx_id", tx.ID),
		zap.String("tx_hash", tx.Hash().String()),
		zap.Bool("mint", tx.IsMint),
		zap.Int("inputs", len(tx.Inputs)),
		zap.Int("outputs", len(tx.Outputs)),
	)
	return tx.Clone(), nil
}
