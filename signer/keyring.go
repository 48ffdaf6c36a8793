package signer

import (
	"fmt"
	"sort"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// KeyStore holds one private key per wallet address.
type KeyStore interface {
	// NewKey generates and stores a key for address, returning its public half.
	NewKey(address string) (*ec.PublicKey, error)

	// PrivateKey returns ErrKeyNotFound when address has no key.
	PrivateKey(address string) (*ec.PrivateKey, error)
}

// Keyring is an in-memory KeyStore. Persist it with SaveKeyring.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]*ec.PrivateKey
}

var _ KeyStore = (*Keyring)(nil)

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]*ec.PrivateKey)}
}

// NewKey generates a fresh secp256k1 key for address.
func (k *Keyring) NewKey(address string) (*ec.PublicKey, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("signer: generate key: %w", err)
	}
	if err := k.Import(address, priv); err != nil {
		return nil, err
	}
	return priv.PubKey(), nil
}

// Import stores an existing key for address.
func (k *Keyring) Import(address string, priv *ec.PrivateKey) error {
	if priv == nil {
		return fmt.Errorf("%w: private key", ErrNilParam)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.keys[address]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, address)
	}
	k.keys[address] = priv
	return nil
}

// PrivateKey returns the key held for address.
func (k *Keyring) PrivateKey(address string) (*ec.PrivateKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	priv, ok := k.keys[address]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, address)
	}
	return priv, nil
}

// Addresses returns every address with a key, sorted.
func (k *Keyring) Addresses() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.keys))
	for addr := range k.keys {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of keys held.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}
