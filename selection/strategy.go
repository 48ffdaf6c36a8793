// Package selection chooses which unspent outputs fund a transfer.
package selection

import (
	"fmt"
	"slices"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// Strategy picks a subset of candidates whose total covers target. On
// success total >= target and the chosen outputs are claimed in s. When
// the unclaimed candidates cannot cover target it returns
// ledger.ErrInsufficientFunds.
type Strategy interface {
	Select(s *Session, candidates []*ledger.UTXO, target amount.Amount) (chosen []*ledger.UTXO, total amount.Amount, err error)
}

// Names accepted by FromName.
const (
	NameLargestFirst = "largest"
	NameOldestFirst  = "oldest"
	NameInteractive  = "interactive"
)

// FromName returns the strategy called name. Only interactive uses p.
func FromName(name string, p Prompter) (Strategy, error) {
	switch name {
	case NameLargestFirst, "":
		return LargestFirst{}, nil
	case NameOldestFirst:
		return OldestFirst{}, nil
	case NameInteractive:
		if p == nil {
			return nil, ErrNoPrompter
		}
		return &Interactive{Prompter: p}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// LargestFirst spends the biggest outputs first, breaking ties by id so
// the result is deterministic. It tends to produce few inputs.
type LargestFirst struct{}

func (LargestFirst) Select(s *Session, candidates []*ledger.UTXO, target amount.Amount) ([]*ledger.UTXO, amount.Amount, error) {
	pool := s.Unclaimed(candidates)
	slices.SortStableFunc(pool, func(a, b *ledger.UTXO) int {
		switch {
		case a.Amount > b.Amount:
			return -1
		case a.Amount < b.Amount:
			return 1
		}
		return cmpID(a, b)
	})
	return firstFit(s, pool, target)
}

// OldestFirst spends outputs in creation order.
type OldestFirst struct{}

func (OldestFirst) Select(s *Session, candidates []*ledger.UTXO, target amount.Amount) ([]*ledger.UTXO, amount.Amount, error) {
	pool := s.Unclaimed(candidates)
	slices.SortStableFunc(pool, cmpID)
	return firstFit(s, pool, target)
}

func cmpID(a, b *ledger.UTXO) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// firstFit takes outputs from pool in order until target is covered.
func firstFit(s *Session, pool []*ledger.UTXO, target amount.Amount) ([]*ledger.UTXO, amount.Amount, error) {
	var (
		chosen []*ledger.UTXO
		total  amount.Amount
	)
	for _, u := range pool {
		if total >= target {
			break
		}
		next, err := amount.Add(total, u.Amount)
		if err != nil {
			return nil, 0, err
		}
		chosen = append(chosen, u)
		total = next
	}
	if total < target {
		return nil, 0, fmt.Errorf("%w: have %s of %s unclaimed", ledger.ErrInsufficientFunds, total, target)
	}
	s.claimAll(chosen)
	return chosen, total, nil
}
