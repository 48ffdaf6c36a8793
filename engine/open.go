package engine

import (
	"fmt"
	"os"

	"github.com/bitfsorg/libledger-go/boltstore"
	"github.com/bitfsorg/libledger-go/config"
	"github.com/bitfsorg/libledger-go/ledger"
	"github.com/bitfsorg/libledger-go/selection"
	"github.com/bitfsorg/libledger-go/signer"
	"github.com/bitfsorg/libledger-go/sqlstore"
)

// Open builds an engine from cfg: it opens the configured store, picks the
// selection strategy, and sets up logging. Explicit options win over cfg.
//
// Persistent backends need durable keys: either WithKeyStore, or
// WithKeyringPassword to use the encrypted keyring in cfg.DataDir.
func Open(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	given := collect(opts)
	if cfg.Backend != config.BackendMemory && given.keys == nil && !given.keyringPassSet {
		return nil, ErrNoKeyStore
	}

	all := []Option{WithMaxRetries(cfg.MaxCommitRetries)}
	if given.strategy == nil {
		strategy, err := selection.FromName(cfg.Selection, given.prompter)
		if err != nil {
			return nil, fmt.Errorf("engine: selection %q: %w", cfg.Selection, err)
		}
		all = append(all, WithStrategy(strategy))
	}
	if given.logger == nil {
		logger, err := config.NewLogger(cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, WithLogger(logger))
	}
	all = append(all, opts...)

	var (
		dirLock  *os.File
		saveKeys func() error
	)
	if cfg.Backend != config.BackendMemory {
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("engine: create data dir: %w", err)
		}
		l, err := lockDataDir(config.LockPath(cfg.DataDir))
		if err != nil {
			return nil, err
		}
		dirLock = l

		if given.keys == nil {
			path, password := config.KeyringPath(cfg.DataDir), given.keyringPassword
			keys, err := signer.LoadKeyring(path, password)
			if err != nil {
				unlockDataDir(dirLock)
				return nil, fmt.Errorf("engine: load keyring: %w", err)
			}
			all = append(all, WithKeyStore(keys))
			saveKeys = func() error { return signer.SaveKeyring(path, keys, password) }
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		unlockDataDir(dirLock)
		return nil, err
	}
	e, err := New(store, all...)
	if err != nil {
		_ = store.Close()
		unlockDataDir(dirLock)
		return nil, err
	}
	e.dirLock = dirLock
	e.saveKeys = saveKeys
	return e, nil
}

func openStore(cfg config.Config) (ledger.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return ledger.NewMemStore(), nil
	case config.BackendBolt:
		return boltstore.Open(cfg.StorePath())
	case config.BackendSQLite:
		return sqlstore.Open(cfg.StorePath())
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}
