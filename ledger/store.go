package ledger

import "context"

// Reader is the read side of a store transaction.
type Reader interface {
	// GetWalletByAddress returns ErrWalletNotFound when no wallet has the address.
	GetWalletByAddress(address string) (*Wallet, error)

	// GetUTXO returns ErrUTXONotFound for an unknown id.
	GetUTXO(id uint64) (*UTXO, error)

	// GetUTXOsByOwner returns every output ever created for address, spent or
	// not, in creation order. Unknown addresses yield an empty slice.
	GetUTXOsByOwner(address string) ([]*UTXO, error)

	// TransactionsReferencingInput counts committed transactions that list
	// utxoID as an input. Anything other than 0 or 1 indicates corruption.
	TransactionsReferencingInput(utxoID uint64) (int, error)

	// GetTransaction returns ErrTxNotFound for an unknown id.
	GetTransaction(id uint64) (*Transaction, error)
}

// Writer is the read-write side of a store transaction.
type Writer interface {
	Reader

	// SaveWallet inserts w when w.ID is zero and updates it otherwise.
	// Inserting an address that already exists returns ErrWalletExists.
	SaveWallet(w *Wallet) (uint64, error)

	// SaveUTXO inserts u and returns its assigned id.
	SaveUTXO(u *UTXO) (uint64, error)

	// SaveTransaction inserts tx, assigns its id, and records every input in
	// the spent-index. An input that is already indexed returns
	// ErrStoreConflict and nothing is written.
	SaveTransaction(tx *Transaction) (uint64, error)
}

// Store is a transactional ledger store. Writes made inside Update become
// visible together when fn returns nil and are discarded otherwise.
type Store interface {
	View(ctx context.Context, fn func(r Reader) error) error
	Update(ctx context.Context, fn func(w Writer) error) error
	Close() error
}
