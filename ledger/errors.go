package ledger

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("ledger: required parameter is nil")

	// ErrWalletNotFound indicates no wallet exists for the address.
	ErrWalletNotFound = errors.New("ledger: wallet not found")

	// ErrWalletExists indicates a wallet with the address was already created.
	ErrWalletExists = errors.New("ledger: wallet already exists")

	// ErrInvalidWalletAddress indicates an address that is empty or names no wallet.
	ErrInvalidWalletAddress = errors.New("ledger: invalid wallet address")

	// ErrInvalidDestination indicates a transfer destination with no wallet.
	ErrInvalidDestination = errors.New("ledger: invalid destination")

	// ErrInvalidAmount indicates a non-positive or unusable amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInsufficientFunds indicates the spendable outputs cannot cover the request.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrUnauthorized indicates a mint signed by a wallet without minting rights.
	ErrUnauthorized = errors.New("ledger: unauthorized to create money")

	// ErrDoubleSpend indicates an input already consumed by a committed transaction.
	ErrDoubleSpend = errors.New("ledger: double spend")

	// ErrSignatureInvalid indicates a missing or non-verifying signature.
	ErrSignatureInvalid = errors.New("ledger: signature invalid")

	// ErrStoreConflict indicates a concurrent commit consumed an input first.
	ErrStoreConflict = errors.New("ledger: store conflict")

	// ErrUTXONotFound indicates an input that references no known output.
	ErrUTXONotFound = errors.New("ledger: utxo not found")

	// ErrTxNotFound indicates the transaction was not found in the store.
	ErrTxNotFound = errors.New("ledger: transaction not found")

	// ErrInvalidTransaction indicates a structurally malformed transaction.
	ErrInvalidTransaction = errors.New("ledger: invalid transaction")

	// ErrValueNotConserved indicates outputs that do not add up to the inputs.
	ErrValueNotConserved = errors.New("ledger: value not conserved")
)
