package txbuilder

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
	"github.com/bitfsorg/libledger-go/utxoset"
)

// Validate checks tx against the state visible through r. It returns nil
// only when tx could be committed as-is.
func (b *Builder) Validate(r ledger.Reader, tx *ledger.Transaction) error {
	if r == nil || tx == nil {
		return fmt.Errorf("%w: reader or transaction", ledger.ErrNilParam)
	}

	outTotal, err := validateOutputs(r, tx)
	if err != nil {
		return err
	}

	var owners []string
	if tx.IsMint {
		if err := validateMint(r, tx); err != nil {
			return err
		}
	} else {
		if owners, err = validateInputs(r, tx, outTotal); err != nil {
			return err
		}
	}

	return b.verifySignatures(r, tx, owners)
}

func validateOutputs(r ledger.Reader, tx *ledger.Transaction) (amount.Amount, error) {
	if len(tx.Outputs) == 0 {
		return 0, fmt.Errorf("%w: no outputs", ledger.ErrInvalidTransaction)
	}
	var total amount.Amount
	for i, out := range tx.Outputs {
		if out.Amount.IsZero() {
			return 0, fmt.Errorf("%w: output %d is zero", ledger.ErrInvalidAmount, i)
		}
		if _, err := r.GetWalletByAddress(out.Address); err != nil {
			if errors.Is(err, ledger.ErrWalletNotFound) {
				return 0, fmt.Errorf("%w: output %d to %q", ledger.ErrInvalidDestination, i, out.Address)
			}
			return 0, err
		}
		var err error
		if total, err = amount.Add(total, out.Amount); err != nil {
			return 0, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err)
		}
	}
	return total, nil
}

func validateMint(r ledger.Reader, tx *ledger.Transaction) error {
	if len(tx.Inputs) != 0 {
		return fmt.Errorf("%w: mint with %d inputs", ledger.ErrInvalidTransaction, len(tx.Inputs))
	}
	if len(tx.Signatures) != 1 {
		return fmt.Errorf("%w: mint needs exactly one signer, has %d", ledger.ErrUnauthorized, len(tx.Signatures))
	}
	signer := tx.Signatures[0].Signer
	w, err := r.GetWalletByAddress(signer)
	if errors.Is(err, ledger.ErrWalletNotFound) {
		return fmt.Errorf("%w: %q", ledger.ErrUnauthorized, signer)
	}
	if err != nil {
		return err
	}
	if !w.CanMint {
		return fmt.Errorf("%w: %q", ledger.ErrUnauthorized, signer)
	}
	return nil
}

// validateInputs returns the distinct input owners in first-seen order.
func validateInputs(r ledger.Reader, tx *ledger.Transaction, outTotal amount.Amount) ([]string, error) {
	if len(tx.Inputs) == 0 {
		return nil, fmt.Errorf("%w: transfer without inputs", ledger.ErrInvalidTransaction)
	}

	set := utxoset.New(r)
	seen := make(map[uint64]struct{}, len(tx.Inputs))
	owned := make(map[string]struct{})
	var (
		owners  []string
		inTotal amount.Amount
	)
	for _, id := range tx.Inputs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: utxo %d listed twice", ledger.ErrDoubleSpend, id)
		}
		seen[id] = struct{}{}

		u, err := r.GetUTXO(id)
		if err != nil {
			return nil, err
		}
		spent, err := set.IsSpent(id)
		if err != nil {
			return nil, err
		}
		if spent {
			return nil, fmt.Errorf("%w: utxo %d", ledger.ErrDoubleSpend, id)
		}
		if inTotal, err = amount.Add(inTotal, u.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err)
		}
		if _, ok := owned[u.Owner]; !ok {
			owned[u.Owner] = struct{}{}
			owners = append(owners, u.Owner)
		}
	}

	if inTotal != outTotal {
		return nil, fmt.Errorf("%w: inputs %s, outputs %s", ledger.ErrValueNotConserved, inTotal, outTotal)
	}
	return owners, nil
}

// verifySignatures requires a signature from every owner and checks every
// signature present against its signer's public key.
func (b *Builder) verifySignatures(r ledger.Reader, tx *ledger.Transaction, owners []string) error {
	signed := make(map[string]struct{}, len(tx.Signatures))
	payload := tx.Payload()
	for _, sig := range tx.Signatures {
		if _, dup := signed[sig.Signer]; dup {
			return fmt.Errorf("%w: %q signed twice", ledger.ErrSignatureInvalid, sig.Signer)
		}
		signed[sig.Signer] = struct{}{}

		w, err := r.GetWalletByAddress(sig.Signer)
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return fmt.Errorf("%w: unknown signer %q", ledger.ErrSignatureInvalid, sig.Signer)
		}
		if err != nil {
			return err
		}
		if !b.scheme.Verify(w.PubKey, payload, sig.Sig) {
			return fmt.Errorf("%w: %q", ledger.ErrSignatureInvalid, sig.Signer)
		}
	}
	for _, owner := range owners {
		if _, ok := signed[owner]; !ok {
			return fmt.Errorf("%w: missing signature from %q", ledger.ErrSignatureInvalid, owner)
		}
	}
	return nil
}
