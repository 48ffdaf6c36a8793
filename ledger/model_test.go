package ledger

import (
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libledger-go/amount"
)

func TestPayload_Layout(t *testing.T) {
	tx := &Transaction{
		Inputs:  []uint64{1, 2},
		Outputs: []Output{{Address: "ab", Amount: 5}},
	}
	p := tx.Payload()

	// flag(1) + n_in(4) + 2*8 + n_out(4) + len(4) + "ab" + amount(8)
	require.Len(t, p, 1+4+16+4+4+2+8)
	assert.Equal(t, byte(0), p[0])
	assert.Equal(t, []byte{0, 0, 0, 2}, p[1:5])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, p[5:13])
	assert.Equal(t, []byte("ab"), p[29:31])
	assert.Equal(t, byte(5), p[len(p)-1])
}

func TestPayload_ExcludesSignaturesAndID(t *testing.T) {
	tx := &Transaction{
		Inputs:  []uint64{7},
		Outputs: []Output{{Address: "bob", Amount: 1}},
	}
	before := tx.Payload()

	tx.ID = 42
	tx.Signatures = []Signature{{Signer: "alice", Sig: []byte{1, 2, 3}}}
	assert.Equal(t, before, tx.Payload())
	assert.Equal(t, chainhash.DoubleHashH(before), tx.Hash())
}

func TestPayload_MintFlagChangesHash(t *testing.T) {
	a := &Transaction{Outputs: []Output{{Address: "bob", Amount: 1}}}
	b := a.Clone()
	b.IsMint = true
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, byte(1), b.Payload()[0])
}

// Address boundaries are length-prefixed, so moving a character between
// outputs changes the payload.
func TestPayload_AddressBoundaries(t *testing.T) {
	a := &Transaction{Outputs: []Output{{Address: "ab", Amount: 1}, {Address: "c", Amount: 1}}}
	b := &Transaction{Outputs: []Output{{Address: "a", Amount: 1}, {Address: "bc", Amount: 1}}}
	assert.NotEqual(t, a.Payload(), b.Payload())
}

func TestTotalOutput(t *testing.T) {
	tx := &Transaction{Outputs: []Output{
		{Address: "a", Amount: amount.MustParse("0.1")},
		{Address: "b", Amount: amount.MustParse("0.2")},
	}}
	total, err := tx.TotalOutput()
	require.NoError(t, err)
	assert.Equal(t, amount.MustParse("0.3"), total)

	tx.Outputs = append(tx.Outputs, Output{Address: "c", Amount: ^amount.Amount(0)})
	_, err = tx.TotalOutput()
	assert.ErrorIs(t, err, amount.ErrOverflow)
}

func TestClone_IsDeep(t *testing.T) {
	tx := &Transaction{
		ID:         3,
		Inputs:     []uint64{1},
		Outputs:    []Output{{Address: "a", Amount: 1}},
		Signatures: []Signature{{Signer: "a", Sig: []byte{9}}},
	}
	cp := tx.Clone()
	cp.Inputs[0] = 99
	cp.Outputs[0].Amount = 99
	cp.Signatures[0].Sig[0] = 0

	assert.Equal(t, uint64(1), tx.Inputs[0])
	assert.Equal(t, amount.Amount(1), tx.Outputs[0].Amount)
	assert.Equal(t, byte(9), tx.Signatures[0].Sig[0])
	assert.Equal(t, []string{"a"}, tx.Signers())
}
