// Package boltstore implements ledger.Store on a single bbolt database file.
package boltstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libledger-go/ledger"
)

var (
	bucketWallets    = []byte("wallets")
	bucketUTXOs      = []byte("utxos")
	bucketUTXOsOwner = []byte("utxos_owner")
	bucketTxs        = []byte("txs")
	bucketSpent      = []byte("spent")
)

// Store wraps a bbolt database for ledger storage.
type Store struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ ledger.Store = (*Store)(nil)

// Open opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("boltstore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketWallets, bucketUTXOs, bucketUTXOsOwner, bucketTxs, bucketSpent} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

// View runs fn inside a read-only bbolt transaction.
func (s *Store) View(ctx context.Context, fn func(r ledger.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&txn{btx: btx})
	})
}

// Update runs fn inside a read-write bbolt transaction. bbolt serializes
// writers, so the spent-index check in SaveTransaction cannot race.
func (s *Store) Update(ctx context.Context, fn func(w ledger.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&txn{btx: btx})
	})
}

// idKey encodes an id as an 8-byte big-endian key so cursors walk in
// creation order.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// ownerPrefix is len(owner) || owner. The length prefix keeps one address
// from being a prefix match for another.
func ownerPrefix(owner string) []byte {
	p := make([]byte, 4, 4+len(owner)+8)
	binary.BigEndian.PutUint32(p, uint32(len(owner)))
	return append(p, owner...)
}

func ownerKey(owner string, id uint64) []byte {
	return append(ownerPrefix(owner), idKey(id)...)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
