// Package txbuilder assembles, signs, and validates ledger transactions.
//
// Builders only read the store. Nothing they produce is committed until
// the engine persists it inside a store Update.
package txbuilder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
	"github.com/bitfsorg/libledger-go/selection"
	"github.com/bitfsorg/libledger-go/signer"
	"github.com/bitfsorg/libledger-go/utxoset"
)

// TransferDetail is one destination of a transfer.
type TransferDetail struct {
	Destination string
	Amount      amount.Amount
}

// Builder builds and validates transactions.
type Builder struct {
	strategy selection.Strategy
	scheme   signer.Scheme
	keys     signer.KeyStore
}

// New creates a Builder. A nil strategy means selection.LargestFirst and a
// nil scheme means signer.ECDSA.
func New(strategy selection.Strategy, scheme signer.Scheme, keys signer.KeyStore) *Builder {
	if strategy == nil {
		strategy = selection.LargestFirst{}
	}
	if scheme == nil {
		scheme = signer.ECDSA{}
	}
	return &Builder{strategy: strategy, scheme: scheme, keys: keys}
}

// Funding is the store-read half of a transfer: the source's spendable
// outputs and the destinations, looked up against one snapshot.
type Funding struct {
	Source    string
	Details   []TransferDetail
	Total     amount.Amount
	Available []*ledger.UTXO

	// first destination with no wallet, reported after selection
	missing string
}

// BuildTransfer moves the sum of details out of source, returning change
// to source when the selected inputs exceed that sum. The result is signed
// by source but not committed.
func (b *Builder) BuildTransfer(r ledger.Reader, s *selection.Session, source string, details []TransferDetail) (*ledger.Transaction, error) {
	f, err := b.ReadFunding(r, source, details)
	if err != nil {
		return nil, err
	}
	return b.AssembleTransfer(s, f)
}

// ReadFunding resolves source, totals details and loads the spendable
// outputs, failing early with ErrInsufficientFunds when they cannot cover
// the total.
func (b *Builder) ReadFunding(r ledger.Reader, source string, details []TransferDetail) (*Funding, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader", ledger.ErrNilParam)
	}
	if _, err := r.GetWalletByAddress(source); err != nil {
		return nil, err
	}

	if len(details) == 0 {
		return nil, fmt.Errorf("%w: no transfer details", ledger.ErrInvalidAmount)
	}
	var total amount.Amount
	for _, d := range details {
		var err error
		if total, err = amount.Add(total, d.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err)
		}
	}

	available, err := utxoset.New(r).Available(source)
	if err != nil {
		return nil, err
	}
	balance, err := utxoset.Balance(available)
	if err != nil {
		return nil, err
	}
	if balance < total {
		return nil, fmt.Errorf("%w: %q has %s, needs %s", ledger.ErrInsufficientFunds, source, balance, total)
	}

	f := &Funding{
		Source:    source,
		Details:   slices.Clone(details),
		Total:     total,
		Available: available,
	}
	for _, d := range details {
		_, err := r.GetWalletByAddress(d.Destination)
		if errors.Is(err, ledger.ErrWalletNotFound) {
			f.missing = d.Destination
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AssembleTransfer runs selection over f and builds the signed
// transaction. It does not touch the store, so a slow strategy holds no
// store transaction open.
func (b *Builder) AssembleTransfer(s *selection.Session, f *Funding) (*ledger.Transaction, error) {
	if s == nil || f == nil {
		return nil, fmt.Errorf("%w: session or funding", ledger.ErrNilParam)
	}

	chosen, selected, err := b.strategy.Select(s, f.Available, f.Total)
	if err != nil {
		return nil, err
	}

	if f.missing != "" {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidDestination, f.missing)
	}
	tx := &ledger.Transaction{}
	for _, d := range f.Details {
		if d.Amount.IsZero() {
			return nil, fmt.Errorf("%w: zero amount to %q", ledger.ErrInvalidAmount, d.Destination)
		}
		tx.Outputs = append(tx.Outputs, ledger.Output{Address: d.Destination, Amount: d.Amount})
	}
	for _, u := range chosen {
		tx.Inputs = append(tx.Inputs, u.ID)
	}
	if selected > f.Total {
		tx.Outputs = append(tx.Outputs, ledger.Output{Address: f.Source, Amount: selected - f.Total})
	}

	if err := b.Sign(tx, f.Source); err != nil {
		return nil, err
	}
	return tx, nil
}

// BuildMint creates amt new value for destination, signed by authorized.
func (b *Builder) BuildMint(r ledger.Reader, authorized, destination string, amt amount.Amount) (*ledger.Transaction, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader", ledger.ErrNilParam)
	}
	minter, err := lookupWallet(r, authorized)
	if err != nil {
		return nil, err
	}
	if _, err := lookupWallet(r, destination); err != nil {
		return nil, err
	}
	if amt.IsZero() {
		return nil, fmt.Errorf("%w: mint of zero", ledger.ErrInvalidAmount)
	}
	if !minter.CanMint {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnauthorized, authorized)
	}

	tx := &ledger.Transaction{
		Outputs: []ledger.Output{{Address: destination, Amount: amt}},
		IsMint:  true,
	}
	if err := b.Sign(tx, authorized); err != nil {
		return nil, err
	}
	return tx, nil
}

// Sign appends address's signature over tx.Payload(), replacing any
// earlier signature by the same address.
func (b *Builder) Sign(tx *ledger.Transaction, address string) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction", ledger.ErrNilParam)
	}
	if b.keys == nil {
		return fmt.Errorf("%w: key store", ledger.ErrNilParam)
	}
	priv, err := b.keys.PrivateKey(address)
	if err != nil {
		return fmt.Errorf("txbuilder: sign as %q: %w", address, err)
	}
	sig, err := b.scheme.Sign(priv, tx.Payload())
	if err != nil {
		return err
	}

	for i := range tx.Signatures {
		if tx.Signatures[i].Signer == address {
			tx.Signatures[i].Sig = sig
			return nil
		}
	}
	tx.Signatures = append(tx.Signatures, ledger.Signature{Signer: address, Sig: sig})
	return nil
}

// lookupWallet maps a missing wallet to ErrInvalidWalletAddress.
func lookupWallet(r ledger.Reader, address string) (*ledger.Wallet, error) {
	w, err := r.GetWalletByAddress(address)
	if errors.Is(err, ledger.ErrWalletNotFound) {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidWalletAddress, address)
	}
	return w, err
}
