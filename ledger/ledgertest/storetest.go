// Package ledgertest provides a conformance suite for ledger.Store backends.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// errAbort is returned from Update callbacks to force a rollback.
var errAbort = errors.New("abort")

// RunStoreTests runs the conformance suite. newStore must return an empty
// store; the suite closes it.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ledger.Store)
	}{
		{"WalletInsertAndGet", testWalletInsertAndGet},
		{"WalletDuplicate", testWalletDuplicate},
		{"WalletUpdate", testWalletUpdate},
		{"WalletNotFound", testWalletNotFound},
		{"UTXOsByOwner", testUTXOsByOwner},
		{"UTXONotFound", testUTXONotFound},
		{"TransactionRoundTrip", testTransactionRoundTrip},
		{"SpentIndex", testSpentIndex},
		{"SpentIndexConflict", testSpentIndexConflict},
		{"RollbackOnError", testRollbackOnError},
		{"UpdateSeesOwnWrites", testUpdateSeesOwnWrites},
		{"CancelledContext", testCancelledContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// MustCreateWallet inserts a wallet and returns it with its assigned id.
func MustCreateWallet(t *testing.T, s ledger.Store, address string) *ledger.Wallet {
	t.Helper()
	w := &ledger.Wallet{Address: address, PubKey: []byte{0x02, 0x01}}
	err := s.Update(context.Background(), func(wr ledger.Writer) error {
		id, err := wr.SaveWallet(w)
		w.ID = id
		return err
	})
	require.NoError(t, err)
	return w
}

// MustCommit stores tx and one UTXO per output, returning the output ids.
func MustCommit(t *testing.T, s ledger.Store, tx *ledger.Transaction) []uint64 {
	t.Helper()
	var ids []uint64
	err := s.Update(context.Background(), func(w ledger.Writer) error {
		txID, err := w.SaveTransaction(tx)
		if err != nil {
			return err
		}
		tx.ID = txID
		for i, out := range tx.Outputs {
			id, err := w.SaveUTXO(&ledger.UTXO{
				Amount:     out.Amount,
				Owner:      out.Address,
				OriginTxID: txID,
				Index:      uint32(i),
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func mint(to string, amt amount.Amount) *ledger.Transaction {
	return &ledger.Transaction{
		Outputs:    []ledger.Output{{Address: to, Amount: amt}},
		Signatures: []ledger.Signature{{Signer: "minter", Sig: []byte{0x30}}},
		IsMint:     true,
	}
}

func testWalletInsertAndGet(t *testing.T, s ledger.Store) {
	w := MustCreateWallet(t, s, "alice")
	assert.NotZero(t, w.ID)

	err := s.View(context.Background(), func(r ledger.Reader) error {
		got, err := r.GetWalletByAddress("alice")
		require.NoError(t, err)
		assert.Equal(t, w.ID, got.ID)
		assert.Equal(t, "alice", got.Address)
		assert.Equal(t, []byte{0x02, 0x01}, got.PubKey)
		assert.False(t, got.CanMint)
		return nil
	})
	require.NoError(t, err)
}

func testWalletDuplicate(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")
	err := s.Update(context.Background(), func(w ledger.Writer) error {
		_, err := w.SaveWallet(&ledger.Wallet{Address: "alice"})
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrWalletExists)
}

func testWalletUpdate(t *testing.T, s ledger.Store) {
	w := MustCreateWallet(t, s, "minter")
	w.CanMint = true
	err := s.Update(context.Background(), func(wr ledger.Writer) error {
		_, err := wr.SaveWallet(w)
		return err
	})
	require.NoError(t, err)

	err = s.View(context.Background(), func(r ledger.Reader) error {
		got, err := r.GetWalletByAddress("minter")
		require.NoError(t, err)
		assert.True(t, got.CanMint)
		assert.Equal(t, w.ID, got.ID)
		return nil
	})
	require.NoError(t, err)
}

func testWalletNotFound(t *testing.T, s ledger.Store) {
	err := s.View(context.Background(), func(r ledger.Reader) error {
		_, err := r.GetWalletByAddress("nobody")
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
}

func testUTXOsByOwner(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")
	MustCreateWallet(t, s, "bob")
	a1 := MustCommit(t, s, mint("alice", 10))
	MustCommit(t, s, mint("bob", 20))
	a2 := MustCommit(t, s, mint("alice", 30))

	err := s.View(context.Background(), func(r ledger.Reader) error {
		got, err := r.GetUTXOsByOwner("alice")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a1[0], got[0].ID)
		assert.Equal(t, amount.Amount(10), got[0].Amount)
		assert.Equal(t, a2[0], got[1].ID)
		assert.Equal(t, amount.Amount(30), got[1].Amount)
		assert.Less(t, got[0].ID, got[1].ID)

		none, err := r.GetUTXOsByOwner("carol")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})
	require.NoError(t, err)
}

func testUTXONotFound(t *testing.T, s ledger.Store) {
	err := s.View(context.Background(), func(r ledger.Reader) error {
		_, err := r.GetUTXO(999)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrUTXONotFound)
}

func testTransactionRoundTrip(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")
	MustCreateWallet(t, s, "bob")
	ids := MustCommit(t, s, mint("alice", 100))

	tx := &ledger.Transaction{
		Inputs: ids,
		Outputs: []ledger.Output{
			{Address: "bob", Amount: 60},
			{Address: "alice", Amount: 40},
		},
		Signatures: []ledger.Signature{{Signer: "alice", Sig: []byte{0x30, 0x44}}},
	}
	outIDs := MustCommit(t, s, tx)
	require.Len(t, outIDs, 2)

	err := s.View(context.Background(), func(r ledger.Reader) error {
		got, err := r.GetTransaction(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.Inputs, got.Inputs)
		assert.Equal(t, tx.Outputs, got.Outputs)
		assert.Equal(t, tx.Signatures, got.Signatures)
		assert.False(t, got.IsMint)
		assert.Equal(t, tx.Hash(), got.Hash())

		u, err := r.GetUTXO(outIDs[1])
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Owner)
		assert.Equal(t, tx.ID, u.OriginTxID)
		assert.Equal(t, uint32(1), u.Index)

		_, err = r.GetTransaction(tx.ID + 100)
		assert.ErrorIs(t, err, ledger.ErrTxNotFound)
		return nil
	})
	require.NoError(t, err)
}

func testSpentIndex(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")
	ids := MustCommit(t, s, mint("alice", 5))

	count := func() int {
		var n int
		require.NoError(t, s.View(context.Background(), func(r ledger.Reader) error {
			var err error
			n, err = r.TransactionsReferencingInput(ids[0])
			return err
		}))
		return n
	}
	assert.Equal(t, 0, count())

	MustCommit(t, s, &ledger.Transaction{
		Inputs:  ids,
		Outputs: []ledger.Output{{Address: "alice", Amount: 5}},
	})
	assert.Equal(t, 1, count())
}

func testSpentIndexConflict(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")
	ids := MustCommit(t, s, mint("alice", 5))
	spend := &ledger.Transaction{Inputs: ids, Outputs: []ledger.Output{{Address: "alice", Amount: 5}}}
	MustCommit(t, s, spend)

	err := s.Update(context.Background(), func(w ledger.Writer) error {
		_, err := w.SaveTransaction(&ledger.Transaction{Inputs: ids})
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrStoreConflict)

	err = s.Update(context.Background(), func(w ledger.Writer) error {
		_, err := w.SaveTransaction(&ledger.Transaction{Inputs: []uint64{777, 777}})
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrStoreConflict)
}

func testRollbackOnError(t *testing.T, s ledger.Store) {
	MustCreateWallet(t, s, "alice")

	err := s.Update(context.Background(), func(w ledger.Writer) error {
		if _, err := w.SaveWallet(&ledger.Wallet{Address: "ghost"}); err != nil {
			return err
		}
		txID, err := w.SaveTransaction(mint("alice", 9))
		if err != nil {
			return err
		}
		if _, err := w.SaveUTXO(&ledger.UTXO{Amount: 9, Owner: "alice", OriginTxID: txID}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	err = s.View(context.Background(), func(r ledger.Reader) error {
		_, err := r.GetWalletByAddress("ghost")
		assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

		utxos, err := r.GetUTXOsByOwner("alice")
		require.NoError(t, err)
		assert.Empty(t, utxos)
		return nil
	})
	require.NoError(t, err)
}

func testUpdateSeesOwnWrites(t *testing.T, s ledger.Store) {
	err := s.Update(context.Background(), func(w ledger.Writer) error {
		if _, err := w.SaveWallet(&ledger.Wallet{Address: "alice"}); err != nil {
			return err
		}
		if _, err := w.GetWalletByAddress("alice"); err != nil {
			return err
		}
		txID, err := w.SaveTransaction(mint("alice", 3))
		if err != nil {
			return err
		}
		id, err := w.SaveUTXO(&ledger.UTXO{Amount: 3, Owner: "alice", OriginTxID: txID})
		if err != nil {
			return err
		}
		utxos, err := w.GetUTXOsByOwner("alice")
		if err != nil {
			return err
		}
		require.Len(t, utxos, 1)
		assert.Equal(t, id, utxos[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func testCancelledContext(t *testing.T, s ledger.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(w ledger.Writer) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
