package signer

import "errors"

var (
	// ErrNilParam indicates a required argument was nil.
	ErrNilParam = errors.New("signer: nil parameter")

	// ErrKeyNotFound indicates no private key is held for the address.
	ErrKeyNotFound = errors.New("signer: key not found")

	// ErrKeyExists indicates the address already has a key.
	ErrKeyExists = errors.New("signer: key already exists")

	// ErrInvalidKey indicates malformed key material.
	ErrInvalidKey = errors.New("signer: invalid key")

	// ErrDecryptionFailed indicates wrong password or corrupted keyring data.
	ErrDecryptionFailed = errors.New("signer: keyring decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates keyring checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("signer: keyring checksum mismatch")
)
