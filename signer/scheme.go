// Package signer signs and verifies ledger transaction payloads and holds
// the private keys behind each wallet address.
//
// Payloads are hashed with double-SHA256 and signed with ECDSA over
// secp256k1. Signatures are DER-encoded; public keys are 33-byte
// compressed points.
package signer

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Scheme signs payloads and verifies signatures over them.
type Scheme interface {
	Sign(priv *ec.PrivateKey, payload []byte) ([]byte, error)
	Verify(pubKey []byte, payload []byte, sig []byte) bool
}

// ECDSA is the secp256k1 scheme.
type ECDSA struct{}

var _ Scheme = ECDSA{}

// Sign returns the DER signature of double-SHA256(payload).
func (ECDSA) Sign(priv *ec.PrivateKey, payload []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key", ErrNilParam)
	}
	sig, err := priv.Sign(chainhash.DoubleHashB(payload))
	if err != nil {
		return nil, fmt.Errorf("signer: sign payload: %w", err)
	}
	return sig.Serialize(), nil
}

// Verify reports whether sig is a valid signature of payload by pubKey.
// Malformed keys or signatures verify false.
func (ECDSA) Verify(pubKey []byte, payload []byte, sig []byte) bool {
	pub, err := ec.PublicKeyFromBytes(pubKey)
	if err != nil {
		return false
	}
	parsed, err := ec.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(chainhash.DoubleHashB(payload), pub)
}
