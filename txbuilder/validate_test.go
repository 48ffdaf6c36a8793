package txbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
	"github.com/bitfsorg/libledger-go/ledger/ledgertest"
)

func TestValidate_Transfers(t *testing.T) {
	f := newFixture(t, "alice", "bob", "mallory")
	ids := f.fund(t, "alice", 100)
	bobIDs := f.fund(t, "bob", 7)
	spent := f.fund(t, "alice", 5)
	ledgertest.MustCommit(t, f.store, &ledger.Transaction{
		Inputs:  spent,
		Outputs: []ledger.Output{{Address: "bob", Amount: 5}},
	})

	signed := func(tx *ledger.Transaction, by ...string) *ledger.Transaction {
		for _, addr := range by {
			require.NoError(t, f.b.Sign(tx, addr))
		}
		return tx
	}
	transfer := func(inputs []uint64, outs ...ledger.Output) *ledger.Transaction {
		return &ledger.Transaction{Inputs: inputs, Outputs: outs}
	}
	out := func(addr string, amt uint64) ledger.Output {
		return ledger.Output{Address: addr, Amount: amount.Amount(amt)}
	}

	tampered := signed(transfer(ids, out("bob", 100)), "alice")
	tampered.Outputs[0].Address = "mallory"

	tests := []struct {
		name string
		tx   *ledger.Transaction
		want error
	}{
		{"valid", signed(transfer(ids, out("bob", 60), out("alice", 40)), "alice"), nil},
		{"two owners both sign", signed(transfer([]uint64{ids[0], bobIDs[0]}, out("mallory", 107)), "alice", "bob"), nil},
		{"two owners one signs", signed(transfer([]uint64{ids[0], bobIDs[0]}, out("mallory", 107)), "alice"), ledger.ErrSignatureInvalid},
		{"no inputs", signed(transfer(nil, out("bob", 1)), "alice"), ledger.ErrInvalidTransaction},
		{"no outputs", signed(transfer(ids), "alice"), ledger.ErrInvalidTransaction},
		{"zero output", signed(transfer(ids, out("bob", 100), out("bob", 0)), "alice"), ledger.ErrInvalidAmount},
		{"unknown destination", signed(transfer(ids, out("ghost", 100)), "alice"), ledger.ErrInvalidDestination},
		{"unknown input", signed(transfer([]uint64{999}, out("bob", 1)), "alice"), ledger.ErrUTXONotFound},
		{"spent input", signed(transfer(spent, out("bob", 5)), "alice"), ledger.ErrDoubleSpend},
		{"input twice", signed(transfer([]uint64{ids[0], ids[0]}, out("bob", 200)), "alice"), ledger.ErrDoubleSpend},
		{"outputs exceed inputs", signed(transfer(ids, out("bob", 101)), "alice"), ledger.ErrValueNotConserved},
		{"implicit burn", signed(transfer(ids, out("bob", 99)), "alice"), ledger.ErrValueNotConserved},
		{"unsigned", transfer(ids, out("bob", 100)), ledger.ErrSignatureInvalid},
		{"signed by non-owner", signed(transfer(ids, out("bob", 100)), "mallory"), ledger.ErrSignatureInvalid},
		{"tampered after signing", tampered, ledger.ErrSignatureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.view(t, func(r ledger.Reader) {
				err := f.b.Validate(r, tt.tx)
				if tt.want == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, tt.want)
				}
			})
		})
	}
}

func TestValidate_Mints(t *testing.T) {
	f := newFixture(t, "minter", "alice")
	f.setMinter(t, "minter", true)

	var tx *ledger.Transaction
	f.view(t, func(r ledger.Reader) {
		var err error
		tx, err = f.b.BuildMint(r, "minter", "alice", 50)
		require.NoError(t, err)
	})

	withInputs := tx.Clone()
	withInputs.Inputs = []uint64{1}

	cosigned := tx.Clone()
	require.NoError(t, f.b.Sign(cosigned, "alice"))

	selfSigned := &ledger.Transaction{IsMint: true, Outputs: tx.Outputs}
	require.NoError(t, f.b.Sign(selfSigned, "alice"))

	tests := []struct {
		name string
		tx   *ledger.Transaction
		want error
	}{
		{"valid", tx, nil},
		{"has inputs", withInputs, ledger.ErrInvalidTransaction},
		{"two signers", cosigned, ledger.ErrUnauthorized},
		{"unsigned", &ledger.Transaction{IsMint: true, Outputs: tx.Outputs}, ledger.ErrUnauthorized},
		{"signer cannot mint", selfSigned, ledger.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.view(t, func(r ledger.Reader) {
				err := f.b.Validate(r, tt.tx)
				if tt.want == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, tt.want)
				}
			})
		})
	}
}

func TestValidate_MintAfterRevocation(t *testing.T) {
	f := newFixture(t, "minter", "alice")
	f.setMinter(t, "minter", true)

	var tx *ledger.Transaction
	f.view(t, func(r ledger.Reader) {
		var err error
		tx, err = f.b.BuildMint(r, "minter", "alice", 50)
		require.NoError(t, err)
	})
	f.setMinter(t, "minter", false)

	f.view(t, func(r ledger.Reader) {
		assert.ErrorIs(t, f.b.Validate(r, tx), ledger.ErrUnauthorized)
	})
}

func TestValidate_Nil(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(r ledger.Reader) {
		assert.ErrorIs(t, f.b.Validate(r, nil), ledger.ErrNilParam)
	})
}
