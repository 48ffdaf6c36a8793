// Package utxoset answers which outputs an address can still spend.
//
// Nothing here is cached. Every call reads the store's spent-index through
// the Reader it was given, so a Set built inside a store transaction sees
// exactly that transaction's view.
package utxoset

import (
	"fmt"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// Set is a view of unspent outputs over a ledger.Reader.
type Set struct {
	r ledger.Reader
}

// New returns a Set reading through r.
func New(r ledger.Reader) *Set {
	return &Set{r: r}
}

// Available returns the outputs owned by address that no committed
// transaction has spent, in creation order. Unknown addresses yield an
// empty slice.
func (s *Set) Available(address string) ([]*ledger.UTXO, error) {
	owned, err := s.r.GetUTXOsByOwner(address)
	if err != nil {
		return nil, fmt.Errorf("utxoset: list outputs of %q: %w", address, err)
	}
	available := make([]*ledger.UTXO, 0, len(owned))
	for _, u := range owned {
		spent, err := s.IsSpent(u.ID)
		if err != nil {
			return nil, err
		}
		if !spent {
			available = append(available, u)
		}
	}
	return available, nil
}

// IsSpent reports whether a committed transaction lists utxoID as an input.
// Unknown ids are not spent.
func (s *Set) IsSpent(utxoID uint64) (bool, error) {
	n, err := s.r.TransactionsReferencingInput(utxoID)
	if err != nil {
		return false, fmt.Errorf("utxoset: spent lookup for %d: %w", utxoID, err)
	}
	return n > 0, nil
}

// Balance returns the sum of the outputs' amounts.
func Balance(utxos []*ledger.UTXO) (amount.Amount, error) {
	var total amount.Amount
	for _, u := range utxos {
		var err error
		if total, err = amount.Add(total, u.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}
