package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// errStoreClosed is returned by a MemStore after Close.
var errStoreClosed = errors.New("ledger: store closed")

// MemStore is an in-memory Store. Update holds an exclusive lock and stages
// its writes, applying them only when the callback succeeds.
type MemStore struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	utxos   map[uint64]*UTXO
	byOwner map[string][]uint64
	txs     map[uint64]*Transaction
	spent   map[uint64]uint64 // utxo id -> spending tx id

	walletSeq uint64
	utxoSeq   uint64
	txSeq     uint64
	closed    bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		wallets: make(map[string]*Wallet),
		utxos:   make(map[uint64]*UTXO),
		byOwner: make(map[string][]uint64),
		txs:     make(map[uint64]*Transaction),
		spent:   make(map[uint64]uint64),
	}
}

// View runs fn against a consistent snapshot.
func (s *MemStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed
	}
	return fn(&memTxn{base: s})
}

// Update runs fn with exclusive access and commits its writes if fn returns nil.
func (s *MemStore) Update(ctx context.Context, fn func(w Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}

	txn := newMemTxn(s)
	if err := fn(txn); err != nil {
		return err
	}
	txn.apply()
	return nil
}

// Close marks the store closed. Further calls fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTxn reads through to the base store and buffers writes until apply.
// A View uses a memTxn with no staging maps and never writes.
type memTxn struct {
	base *MemStore

	wallets map[string]*Wallet
	utxos   map[uint64]*UTXO
	utxoIDs []uint64 // staged utxos in insertion order
	txs     map[uint64]*Transaction
	spent   map[uint64]uint64

	walletSeq uint64
	utxoSeq   uint64
	txSeq     uint64
}

func newMemTxn(base *MemStore) *memTxn {
	return &memTxn{
		base:      base,
		wallets:   make(map[string]*Wallet),
		utxos:     make(map[uint64]*UTXO),
		txs:       make(map[uint64]*Transaction),
		spent:     make(map[uint64]uint64),
		walletSeq: base.walletSeq,
		utxoSeq:   base.utxoSeq,
		txSeq:     base.txSeq,
	}
}

func (t *memTxn) apply() {
	s := t.base
	for addr, w := range t.wallets {
		s.wallets[addr] = w
	}
	for _, id := range t.utxoIDs {
		u := t.utxos[id]
		s.utxos[id] = u
		s.byOwner[u.Owner] = append(s.byOwner[u.Owner], id)
	}
	for id, tx := range t.txs {
		s.txs[id] = tx
	}
	for utxoID, txID := range t.spent {
		s.spent[utxoID] = txID
	}
	s.walletSeq = t.walletSeq
	s.utxoSeq = t.utxoSeq
	s.txSeq = t.txSeq
}

func (t *memTxn) lookupWallet(address string) *Wallet {
	if w, ok := t.wallets[address]; ok {
		return w
	}
	return t.base.wallets[address]
}

// GetWalletByAddress returns a copy of the wallet for address.
func (t *memTxn) GetWalletByAddress(address string) (*Wallet, error) {
	w := t.lookupWallet(address)
	if w == nil {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, address)
	}
	cp := *w
	return &cp, nil
}

// GetUTXO returns a copy of the output with the given id.
func (t *memTxn) GetUTXO(id uint64) (*UTXO, error) {
	u, ok := t.utxos[id]
	if !ok {
		u, ok = t.base.utxos[id]
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUTXONotFound, id)
	}
	cp := *u
	return &cp, nil
}

// GetUTXOsByOwner returns copies of every output owned by address.
func (t *memTxn) GetUTXOsByOwner(address string) ([]*UTXO, error) {
	ids := t.base.byOwner[address]
	result := make([]*UTXO, 0, len(ids))
	for _, id := range ids {
		cp := *t.base.utxos[id]
		result = append(result, &cp)
	}
	for _, id := range t.utxoIDs {
		if u := t.utxos[id]; u.Owner == address {
			cp := *u
			result = append(result, &cp)
		}
	}
	return result, nil
}

// TransactionsReferencingInput answers from the spent-index.
func (t *memTxn) TransactionsReferencingInput(utxoID uint64) (int, error) {
	if _, ok := t.spent[utxoID]; ok {
		return 1, nil
	}
	if _, ok := t.base.spent[utxoID]; ok {
		return 1, nil
	}
	return 0, nil
}

// GetTransaction returns a copy of the transaction with the given id.
func (t *memTxn) GetTransaction(id uint64) (*Transaction, error) {
	tx, ok := t.txs[id]
	if !ok {
		tx, ok = t.base.txs[id]
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrTxNotFound, id)
	}
	return tx.Clone(), nil
}

// SaveWallet inserts or updates a wallet.
func (t *memTxn) SaveWallet(w *Wallet) (uint64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: wallet", ErrNilParam)
	}
	existing := t.lookupWallet(w.Address)
	cp := *w
	cp.PubKey = append([]byte(nil), w.PubKey...)

	if w.ID == 0 {
		if existing != nil {
			return 0, fmt.Errorf("%w: %q", ErrWalletExists, w.Address)
		}
		t.walletSeq++
		cp.ID = t.walletSeq
	} else if existing == nil || existing.ID != w.ID {
		return 0, fmt.Errorf("%w: id %d address %q", ErrWalletNotFound, w.ID, w.Address)
	}

	t.wallets[cp.Address] = &cp
	return cp.ID, nil
}

// SaveUTXO inserts a new output.
func (t *memTxn) SaveUTXO(u *UTXO) (uint64, error) {
	if u == nil {
		return 0, fmt.Errorf("%w: utxo", ErrNilParam)
	}
	t.utxoSeq++
	cp := *u
	cp.ID = t.utxoSeq
	t.utxos[cp.ID] = &cp
	t.utxoIDs = append(t.utxoIDs, cp.ID)
	return cp.ID, nil
}

// SaveTransaction inserts tx and indexes its inputs as spent.
func (t *memTxn) SaveTransaction(tx *Transaction) (uint64, error) {
	if tx == nil {
		return 0, fmt.Errorf("%w: transaction", ErrNilParam)
	}
	seen := make(map[uint64]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in]; dup {
			return 0, fmt.Errorf("%w: utxo %d listed twice", ErrStoreConflict, in)
		}
		seen[in] = struct{}{}
		n, _ := t.TransactionsReferencingInput(in)
		if n > 0 {
			return 0, fmt.Errorf("%w: utxo %d already spent", ErrStoreConflict, in)
		}
	}

	t.txSeq++
	cp := tx.Clone()
	cp.ID = t.txSeq
	for _, in := range cp.Inputs {
		t.spent[in] = cp.ID
	}
	t.txs[cp.ID] = cp
	return cp.ID, nil
}
