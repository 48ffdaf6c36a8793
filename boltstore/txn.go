package boltstore

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libledger-go/ledger"
)

// txn adapts a bbolt transaction to ledger.Writer. Inside View the
// underlying transaction is read-only and every Save fails.
type txn struct {
	btx *bbolt.Tx
}

var _ ledger.Writer = (*txn)(nil)

func (t *txn) GetWalletByAddress(address string) (*ledger.Wallet, error) {
	data := t.btx.Bucket(bucketWallets).Get([]byte(address))
	if data == nil {
		return nil, fmt.Errorf("%w: %q", ledger.ErrWalletNotFound, address)
	}
	var w ledger.Wallet
	if err := decodeGob(data, &w); err != nil {
		return nil, fmt.Errorf("boltstore: decode wallet: %w", err)
	}
	return &w, nil
}

func (t *txn) GetUTXO(id uint64) (*ledger.UTXO, error) {
	data := t.btx.Bucket(bucketUTXOs).Get(idKey(id))
	if data == nil {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrUTXONotFound, id)
	}
	var u ledger.UTXO
	if err := decodeGob(data, &u); err != nil {
		return nil, fmt.Errorf("boltstore: decode utxo: %w", err)
	}
	return &u, nil
}

func (t *txn) GetUTXOsByOwner(address string) ([]*ledger.UTXO, error) {
	prefix := ownerPrefix(address)
	utxos := t.btx.Bucket(bucketUTXOs)
	result := []*ledger.UTXO{}

	c := t.btx.Bucket(bucketUTXOsOwner).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		data := utxos.Get(k[len(prefix):])
		if data == nil {
			continue // stale index entry
		}
		var u ledger.UTXO
		if err := decodeGob(data, &u); err != nil {
			return nil, fmt.Errorf("boltstore: decode utxo by owner: %w", err)
		}
		result = append(result, &u)
	}
	return result, nil
}

func (t *txn) TransactionsReferencingInput(utxoID uint64) (int, error) {
	if t.btx.Bucket(bucketSpent).Get(idKey(utxoID)) != nil {
		return 1, nil
	}
	return 0, nil
}

func (t *txn) GetTransaction(id uint64) (*ledger.Transaction, error) {
	data := t.btx.Bucket(bucketTxs).Get(idKey(id))
	if data == nil {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrTxNotFound, id)
	}
	var tx ledger.Transaction
	if err := decodeGob(data, &tx); err != nil {
		return nil, fmt.Errorf("boltstore: decode transaction: %w", err)
	}
	return &tx, nil
}

func (t *txn) SaveWallet(w *ledger.Wallet) (uint64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: wallet", ledger.ErrNilParam)
	}
	b := t.btx.Bucket(bucketWallets)
	key := []byte(w.Address)

	cp := *w
	existing := b.Get(key)
	if w.ID == 0 {
		if existing != nil {
			return 0, fmt.Errorf("%w: %q", ledger.ErrWalletExists, w.Address)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return 0, fmt.Errorf("boltstore: wallet sequence: %w", err)
		}
		cp.ID = seq
	} else {
		if existing == nil {
			return 0, fmt.Errorf("%w: id %d address %q", ledger.ErrWalletNotFound, w.ID, w.Address)
		}
		var prev ledger.Wallet
		if err := decodeGob(existing, &prev); err != nil {
			return 0, fmt.Errorf("boltstore: decode wallet: %w", err)
		}
		if prev.ID != w.ID {
			return 0, fmt.Errorf("%w: id %d address %q", ledger.ErrWalletNotFound, w.ID, w.Address)
		}
	}

	data, err := encodeGob(&cp)
	if err != nil {
		return 0, fmt.Errorf("boltstore: encode wallet: %w", err)
	}
	if err := b.Put(key, data); err != nil {
		return 0, fmt.Errorf("boltstore: put wallet: %w", err)
	}
	return cp.ID, nil
}

func (t *txn) SaveUTXO(u *ledger.UTXO) (uint64, error) {
	if u == nil {
		return 0, fmt.Errorf("%w: utxo", ledger.ErrNilParam)
	}
	b := t.btx.Bucket(bucketUTXOs)
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("boltstore: utxo sequence: %w", err)
	}
	cp := *u
	cp.ID = seq

	data, err := encodeGob(&cp)
	if err != nil {
		return 0, fmt.Errorf("boltstore: encode utxo: %w", err)
	}
	if err := b.Put(idKey(seq), data); err != nil {
		return 0, fmt.Errorf("boltstore: put utxo: %w", err)
	}
	if err := t.btx.Bucket(bucketUTXOsOwner).Put(ownerKey(cp.Owner, seq), []byte{}); err != nil {
		return 0, fmt.Errorf("boltstore: put utxo owner index: %w", err)
	}
	return seq, nil
}

func (t *txn) SaveTransaction(tx *ledger.Transaction) (uint64, error) {
	if tx == nil {
		return 0, fmt.Errorf("%w: transaction", ledger.ErrNilParam)
	}
	spent := t.btx.Bucket(bucketSpent)
	seen := make(map[uint64]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in]; dup {
			return 0, fmt.Errorf("%w: utxo %d listed twice", ledger.ErrStoreConflict, in)
		}
		seen[in] = struct{}{}
		if spent.Get(idKey(in)) != nil {
			return 0, fmt.Errorf("%w: utxo %d already spent", ledger.ErrStoreConflict, in)
		}
	}

	b := t.btx.Bucket(bucketTxs)
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("boltstore: tx sequence: %w", err)
	}
	cp := tx.Clone()
	cp.ID = seq

	data, err := encodeGob(cp)
	if err != nil {
		return 0, fmt.Errorf("boltstore: encode transaction: %w", err)
	}
	if err := b.Put(idKey(seq), data); err != nil {
		return 0, fmt.Errorf("boltstore: put transaction: %w", err)
	}
	txKey := idKey(seq)
	for _, in := range cp.Inputs {
		if err := spent.Put(idKey(in), txKey); err != nil {
			return 0, fmt.Errorf("boltstore: put spent index: %w", err)
		}
	}
	return seq, nil
}
