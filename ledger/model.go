// Package ledger defines the UTXO ledger data model, its error kinds, and the
// store contract the engine commits through.
//
// A UTXO never carries a spent flag. Spent-ness is derived from whether a
// committed transaction lists the UTXO's id among its inputs, which stores
// answer from a spent-index written in the same atomic unit as the
// transaction.
package ledger

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libledger-go/amount"
)

// Wallet is an address that can own outputs.
type Wallet struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
	PubKey  []byte `json:"pubkey"` // compressed secp256k1 key, verifies this wallet's signatures
	CanMint bool   `json:"can_mint"`
}

// UTXO is one output of a committed transaction. It is immutable once stored.
type UTXO struct {
	ID         uint64        `json:"id"`
	Amount     amount.Amount `json:"amount"`
	Owner      string        `json:"owner"`
	OriginTxID uint64        `json:"origin_tx_id"`
	Index      uint32        `json:"index"` // position in the origin transaction's outputs
}

// Output is a requested payment of Amount to Address.
type Output struct {
	Address string        `json:"address"`
	Amount  amount.Amount `json:"amount"`
}

// Signature attests that Signer authorized the transaction payload.
type Signature struct {
	Signer string `json:"signer"` // wallet address
	Sig    []byte `json:"sig"`    // DER-encoded
}

// Transaction consumes Inputs (UTXO ids) and creates one UTXO per Output.
// A mint transaction has no inputs.
type Transaction struct {
	ID         uint64      `json:"id"`
	Inputs     []uint64    `json:"inputs"`
	Outputs    []Output    `json:"outputs"`
	Signatures []Signature `json:"signatures"`
	IsMint     bool        `json:"is_mint"`
}

// Payload returns the bytes covered by signatures: the mint flag, the inputs
// and the outputs, big-endian and length-prefixed. ID and Signatures are not
// part of the payload.
//
//	flag(1) || n_in(4) || id(8)*n_in || n_out(4) || [len(4) addr amount(8)]*n_out
func (tx *Transaction) Payload() []byte {
	size := 1 + 4 + 8*len(tx.Inputs) + 4
	for _, out := range tx.Outputs {
		size += 4 + len(out.Address) + 8
	}
	buf := make([]byte, 0, size)

	if tx.IsMint {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, id := range tx.Inputs {
		buf = binary.BigEndian.AppendUint64(buf, id)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(out.Address)))
		buf = append(buf, out.Address...)
		buf = binary.BigEndian.AppendUint64(buf, uint64(out.Amount))
	}
	return buf
}

// Hash returns the double-SHA256 of the payload, displayed byte-reversed like
// a Bitcoin txid.
func (tx *Transaction) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(tx.Payload())
}

// TotalOutput sums the output amounts.
func (tx *Transaction) TotalOutput() (amount.Amount, error) {
	values := make([]amount.Amount, len(tx.Outputs))
	for i, out := range tx.Outputs {
		values[i] = out.Amount
	}
	return amount.Sum(values...)
}

// Signers returns the addresses that signed tx, in signature order.
func (tx *Transaction) Signers() []string {
	out := make([]string, len(tx.Signatures))
	for i, s := range tx.Signatures {
		out[i] = s.Signer
	}
	return out
}

// Clone returns a deep copy of tx.
func (tx *Transaction) Clone() *Transaction {
	cp := &Transaction{
		ID:     tx.ID,
		IsMint: tx.IsMint,
	}
	if tx.Inputs != nil {
		cp.Inputs = append([]uint64(nil), tx.Inputs...)
	}
	if tx.Outputs != nil {
		cp.Outputs = append([]Output(nil), tx.Outputs...)
	}
	if tx.Signatures != nil {
		cp.Signatures = make([]Signature, len(tx.Signatures))
		for i, s := range tx.Signatures {
			cp.Signatures[i] = Signature{Signer: s.Signer, Sig: append([]byte(nil), s.Sig...)}
		}
	}
	return cp
}
