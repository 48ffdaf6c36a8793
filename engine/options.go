package engine

import (
	"go.uber.org/zap"

	"github.com/bitfsorg/libledger-go/selection"
	"github.com/bitfsorg/libledger-go/signer"
)

// DefaultMaxCommitRetries bounds the extra commit attempts a transfer makes
// after losing a race for one of its inputs.
const DefaultMaxCommitRetries = 3

type options struct {
	strategy   selection.Strategy
	prompter   selection.Prompter
	scheme     signer.Scheme
	keys       signer.KeyStore
	logger     *zap.Logger
	maxRetries int
	retriesSet bool

	keyringPassword string
	keyringPassSet  bool
}

// Option configures an Engine.
type Option func(*options)

// WithStrategy sets the input selection strategy. Default LargestFirst.
func WithStrategy(s selection.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithPrompter supplies the prompter used when Open is configured for
// interactive selection.
func WithPrompter(p selection.Prompter) Option {
	return func(o *options) { o.prompter = p }
}

// WithScheme sets the signature scheme. Default signer.ECDSA.
func WithScheme(s signer.Scheme) Option {
	return func(o *options) { o.scheme = s }
}

// WithKeyStore sets where wallet keys live. Default is a fresh in-memory
// signer.Keyring.
func WithKeyStore(k signer.KeyStore) Option {
	return func(o *options) { o.keys = k }
}

// WithKeyringPassword makes Open keep wallet keys in the data directory's
// encrypted keyring file, loaded on open and rewritten whenever a wallet is
// created. Ignored when WithKeyStore is also given.
func WithKeyringPassword(password string) Option {
	return func(o *options) {
		o.keyringPassword = password
		o.keyringPassSet = true
	}
}

// WithLogger sets the logger. Default zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxRetries sets how many extra commit attempts follow a store conflict.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
		o.retriesSet = true
	}
}

// collect applies opts without filling defaults.
func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func buildOptions(opts []Option) options {
	o := collect(opts)
	if o.strategy == nil {
		o.strategy = selection.LargestFirst{}
	}
	if o.scheme == nil {
		o.scheme = signer.ECDSA{}
	}
	if o.keys == nil {
		o.keys = signer.NewKeyring()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if !o.retriesSet || o.maxRetries < 0 {
		o.maxRetries = DefaultMaxCommitRetries
	}
	return o
}
