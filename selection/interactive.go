package selection

import (
	"fmt"
	"slices"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// DefaultMaxAttempts bounds how often Interactive re-prompts.
const DefaultMaxAttempts = 3

// Option is one UTXO offered to a prompter.
type Option struct {
	ID     uint64
	Amount amount.Amount
}

// Prompter asks a human which options to spend.
type Prompter interface {
	Choose(options []Option, target amount.Amount) ([]uint64, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(options []Option, target amount.Amount) ([]uint64, error)

func (f PrompterFunc) Choose(options []Option, target amount.Amount) ([]uint64, error) {
	return f(options, target)
}

// Interactive lets a Prompter pick the inputs. Picks accumulate: each
// reply is claimed in the session, and when the running total still falls
// short the prompt repeats with the remaining outputs and the remaining
// amount, up to MaxAttempts times.
type Interactive struct {
	Prompter    Prompter
	MaxAttempts int // DefaultMaxAttempts when <= 0
}

func (in *Interactive) Select(s *Session, candidates []*ledger.UTXO, target amount.Amount) ([]*ledger.UTXO, amount.Amount, error) {
	if in.Prompter == nil {
		return nil, 0, ErrNoPrompter
	}
	attempts := in.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var (
		chosen []*ledger.UTXO
		total  amount.Amount
	)
	for range attempts {
		options, byID, available, err := offer(s.Unclaimed(candidates))
		if err != nil {
			return nil, 0, err
		}
		reachable, err := amount.Add(total, available)
		if err != nil {
			return nil, 0, err
		}
		if reachable < target {
			return nil, 0, fmt.Errorf("%w: have %s of %s unclaimed", ledger.ErrInsufficientFunds, reachable, target)
		}

		reply, err := in.Prompter.Choose(options, target-total)
		if err != nil {
			return nil, 0, fmt.Errorf("selection: prompt: %w", err)
		}
		picked, sum, err := resolve(byID, reply)
		if err != nil {
			return nil, 0, err
		}
		s.claimAll(picked)
		chosen = append(chosen, picked...)
		if total, err = amount.Add(total, sum); err != nil {
			return nil, 0, err
		}
		if total >= target {
			return chosen, total, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no covering selection after %d attempts", ledger.ErrInsufficientFunds, attempts)
}

// offer lists pool in id order as prompt options.
func offer(pool []*ledger.UTXO) ([]Option, map[uint64]*ledger.UTXO, amount.Amount, error) {
	slices.SortStableFunc(pool, cmpID)
	var available amount.Amount
	byID := make(map[uint64]*ledger.UTXO, len(pool))
	options := make([]Option, 0, len(pool))
	for _, u := range pool {
		var err error
		if available, err = amount.Add(available, u.Amount); err != nil {
			return nil, nil, 0, err
		}
		byID[u.ID] = u
		options = append(options, Option{ID: u.ID, Amount: u.Amount})
	}
	return options, byID, available, nil
}

// resolve maps a reply to offered outputs. Repeated ids count once.
func resolve(byID map[uint64]*ledger.UTXO, reply []uint64) ([]*ledger.UTXO, amount.Amount, error) {
	var (
		chosen []*ledger.UTXO
		total  amount.Amount
	)
	seen := make(map[uint64]struct{}, len(reply))
	for _, id := range reply {
		u, ok := byID[id]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnknownOption, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		var err error
		if total, err = amount.Add(total, u.Amount); err != nil {
			return nil, 0, err
		}
		chosen = append(chosen, u)
	}
	return chosen, total, nil
}
