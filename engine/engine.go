// Package engine is the single entry point of the ledger. It composes the
// store, UTXO set, selection strategy, and transaction builder, and commits
// every state change atomically.
//
// Transfers are built against a read snapshot and re-validated inside the
// committing store transaction. When another writer spends one of the
// chosen inputs in between, the transfer is rebuilt with a fresh selection,
// up to the configured retry bound.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
	"github.com/bitfsorg/libledger-go/selection"
	"github.com/bitfsorg/libledger-go/signer"
	"github.com/bitfsorg/libledger-go/txbuilder"
	"github.com/bitfsorg/libledger-go/utxoset"
)

// Engine orchestrates wallet, mint, and transfer operations.
type Engine struct {
	store      ledger.Store
	keys       signer.KeyStore
	builder    *txbuilder.Builder
	logger     *zap.Logger
	maxRetries int
	sources    *keyedMutex
	dirLock    *os.File
	saveKeys   func() error
}

// New creates an engine over store. The engine takes ownership of store
// and closes it in Close.
func New(store ledger.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ledger.ErrNilParam)
	}
	o := buildOptions(opts)
	return &Engine{
		store:      store,
		keys:       o.keys,
		builder:    txbuilder.New(o.strategy, o.scheme, o.keys),
		logger:     o.logger,
		maxRetries: o.maxRetries,
		sources:    newKeyedMutex(),
	}, nil
}

// Close closes the store, flushes the logger and releases the data
// directory lock taken by Open.
func (e *Engine) Close() error {
	_ = e.logger.Sync()
	err := e.store.Close()
	unlockDataDir(e.dirLock)
	e.dirLock = nil
	return err
}

// Builder exposes the engine's builder so callers can sign transactions
// for Submit.
func (e *Engine) Builder() *txbuilder.Builder { return e.builder }

// CreateWallet registers address with a newly generated signing key.
func (e *Engine) CreateWallet(ctx context.Context, address string) (*ledger.Wallet, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty address", ledger.ErrInvalidWalletAddress)
	}

	var created *ledger.Wallet
	err := e.store.Update(ctx, func(w ledger.Writer) error {
		if _, err := w.GetWalletByAddress(address); err == nil {
			return fmt.Errorf("%w: %q", ledger.ErrWalletExists, address)
		} else if !errors.Is(err, ledger.ErrWalletNotFound) {
			return err
		}

		pub, err := e.publicKey(address)
		if err != nil {
			return err
		}
		if e.saveKeys != nil {
			if err := e.saveKeys(); err != nil {
				return fmt.Errorf("engine: save keyring: %w", err)
			}
		}
		wallet := &ledger.Wallet{Address: address, PubKey: pub}
		if wallet.ID, err = w.SaveWallet(wallet); err != nil {
			return err
		}
		created = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("wallet created", zap.String("address", address), zap.Uint64("wallet_id", created.ID))
	return created, nil
}

// publicKey generates a key for address, reusing one the key store already
// holds.
func (e *Engine) publicKey(address string) ([]byte, error) {
	pub, err := e.keys.NewKey(address)
	if err == nil {
		return pub.Compressed(), nil
	}
	if !errors.Is(err, signer.ErrKeyExists) {
		return nil, err
	}
	priv, err := e.keys.PrivateKey(address)
	if err != nil {
		return nil, err
	}
	return priv.PubKey().Compressed(), nil
}

// AuthorizeMinter lets address sign mint transactions. Idempotent.
func (e *Engine) AuthorizeMinter(ctx context.Context, address string) error {
	return e.setCanMint(ctx, address, true)
}

// RevokeMinter withdraws minting rights. Mints built before the revocation
// fail at commit.
func (e *Engine) RevokeMinter(ctx context.Context, address string) error {
	return e.setCanMint(ctx, address, false)
}

func (e *Engine) setCanMint(ctx context.Context, address string, can bool) error {
	err := e.store.Update(ctx, func(w ledger.Writer) error {
		wallet, err := w.GetWalletByAddress(address)
		if err != nil {
			return err
		}
		if wallet.CanMint == can {
			return nil
		}
		wallet.CanMint = can
		_, err = w.SaveWallet(wallet)
		return err
	})
	if err != nil {
		return err
	}
	e.logger.Info("minting rights changed", zap.String("address", address), zap.Bool("can_mint", can))
	return nil
}

// Mint creates amt new value owned by destination. authorized must hold
// minting rights when the mint commits.
func (e *Engine) Mint(ctx context.Context, authorized, destination string, amt amount.Amount) (*ledger.Transaction, error) {
	var tx *ledger.Transaction
	err := e.store.View(ctx, func(r ledger.Reader) error {
		var err error
		tx, err = e.builder.BuildMint(r, authorized, destination, amt)
		return err
	})
	if err != nil {
		e.logger.Debug("mint rejected", zap.String("address", authorized), zap.Error(err))
		return nil, err
	}
	return e.commit(ctx, tx, commitOwn)
}

// Transfer moves value from source to each destination in details,
// returning any change to source. Transfers from the same source run one
// at a time.
//
// Selection runs after the read snapshot is closed, so an interactive
// prompt never holds the store; commit re-validates every input.
func (e *Engine) Transfer(ctx context.Context, source string, details []txbuilder.TransferDetail) (*ledger.Transaction, error) {
	unlock := e.sources.Lock(source)
	defer unlock()

	session := selection.NewSession()
	log := e.logger.With(zap.String("address", source), zap.String("session", session.ID()))

	for attempt := 0; ; attempt++ {
		var funding *txbuilder.Funding
		err := e.store.View(ctx, func(r ledger.Reader) error {
			var err error
			funding, err = e.builder.ReadFunding(r, source, details)
			return err
		})
		var tx *ledger.Transaction
		if err == nil {
			tx, err = e.builder.AssembleTransfer(session, funding)
		}
		if err != nil {
			log.Debug("transfer rejected", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}

		committed, err := e.commit(ctx, tx, commitOwn)
		if !errors.Is(err, ledger.ErrStoreConflict) {
			return committed, err
		}
		if attempt >= e.maxRetries {
			log.Warn("transfer gave up after conflicts", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}
		log.Debug("transfer conflicted, retrying", zap.Int("attempt", attempt), zap.Error(err))
		session.Release()
	}
}

// Submit validates and commits a transaction built and signed by the
// caller. An input spent by someone else fails with ErrDoubleSpend.
func (e *Engine) Submit(ctx context.Context, tx *ledger.Transaction) (*ledger.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction", ledger.ErrNilParam)
	}
	return e.commit(ctx, tx.Clone(), commitSubmitted)
}

// IsSpent reports whether a committed transaction consumed utxoID.
func (e *Engine) IsSpent(ctx context.Context, utxoID uint64) (bool, error) {
	var spent bool
	err := e.store.View(ctx, func(r ledger.Reader) error {
		var err error
		spent, err = utxoset.New(r).IsSpent(utxoID)
		return err
	})
	return spent, err
}

// AvailableUTXOs returns address's unspent outputs in creation order.
func (e *Engine) AvailableUTXOs(ctx context.Context, address string) ([]*ledger.UTXO, error) {
	var utxos []*ledger.UTXO
	err := e.store.View(ctx, func(r ledger.Reader) error {
		var err error
		utxos, err = utxoset.New(r).Available(address)
		return err
	})
	return utxos, err
}

// Balance sums address's unspent outputs. Unknown addresses have zero
// balance.
func (e *Engine) Balance(ctx context.Context, address string) (amount.Amount, error) {
	utxos, err := e.AvailableUTXOs(ctx, address)
	if err != nil {
		return 0, err
	}
	return utxoset.Balance(utxos)
}

// Wallet returns the wallet registered under address.
func (e *Engine) Wallet(ctx context.Context, address string) (*ledger.Wallet, error) {
	var w *ledger.Wallet
	err := e.store.View(ctx, func(r ledger.Reader) error {
		var err error
		w, err = r.GetWalletByAddress(address)
		return err
	})
	return w, err
}

// Transaction returns a committed transaction by id.
func (e *Engine) Transaction(ctx context.Context, id uint64) (*ledger.Transaction, error) {
	var tx *ledger.Transaction
	err := e.store.View(ctx, func(r ledger.Reader) error {
		var err error
		tx, err = r.GetTransaction(id)
		return err
	})
	return tx, err
}
