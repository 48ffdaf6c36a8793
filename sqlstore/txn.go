package sqlstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bitfsorg/libledger-go/ledger"
)

type txn struct {
	db *gorm.DB
}

var _ ledger.Writer = (*txn)(nil)

func (t *txn) GetWalletByAddress(address string) (*ledger.Wallet, error) {
	var w WalletDB
	err := t.db.Where("address = ?", address).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ledger.ErrWalletNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get wallet: %w", err)
	}
	return walletFromDB(&w), nil
}

func (t *txn) GetUTXO(id uint64) (*ledger.UTXO, error) {
	var u UTXODB
	err := t.db.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrUTXONotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get utxo: %w", err)
	}
	return utxoFromDB(&u), nil
}

func (t *txn) GetUTXOsByOwner(address string) ([]*ledger.UTXO, error) {
	var rows []UTXODB
	if err := t.db.Where("owner = ?", address).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: get utxos by owner: %w", err)
	}
	result := make([]*ledger.UTXO, 0, len(rows))
	for i := range rows {
		result = append(result, utxoFromDB(&rows[i]))
	}
	return result, nil
}

func (t *txn) TransactionsReferencingInput(utxoID uint64) (int, error) {
	var count int64
	err := t.db.Model(&SpentInputDB{}).Where("utxo_id = ?", utxoID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("sqlstore: count spending transactions: %w", err)
	}
	return int(count), nil
}

func (t *txn) GetTransaction(id uint64) (*ledger.Transaction, error) {
	var tx TransactionDB
	err := t.db.First(&tx, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrTxNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get transaction: %w", err)
	}
	return transactionFromDB(&tx), nil
}

func (t *txn) SaveWallet(w *ledger.Wallet) (uint64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: wallet", ledger.ErrNilParam)
	}
	row := WalletDB{ID: w.ID, Address: w.Address, PubKey: w.PubKey, CanMint: w.CanMint}

	if w.ID == 0 {
		var count int64
		if err := t.db.Model(&WalletDB{}).Where("address = ?", w.Address).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("sqlstore: check wallet: %w", err)
		}
		if count > 0 {
			return 0, fmt.Errorf("%w: %q", ledger.ErrWalletExists, w.Address)
		}
		err := t.db.Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("%w: %q", ledger.ErrWalletExists, w.Address)
		}
		if err != nil {
			return 0, fmt.Errorf("sqlstore: insert wallet: %w", err)
		}
		return row.ID, nil
	}

	res := t.db.Model(&WalletDB{}).
		Where("id = ? AND address = ?", w.ID, w.Address).
		Updates(map[string]any{"pub_key": w.PubKey, "can_mint": w.CanMint})
	if res.Error != nil {
		return 0, fmt.Errorf("sqlstore: update wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: id %d address %q", ledger.ErrWalletNotFound, w.ID, w.Address)
	}
	return w.ID, nil
}

func (t *txn) SaveUTXO(u *ledger.UTXO) (uint64, error) {
	if u == nil {
		return 0, fmt.Errorf("%w: utxo", ledger.ErrNilParam)
	}
	row := UTXODB{
		Amount:      AmountColumn(u.Amount),
		Owner:       u.Owner,
		OriginTxID:  u.OriginTxID,
		OutputIndex: u.Index,
	}
	if err := t.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("sqlstore: insert utxo: %w", err)
	}
	return row.ID, nil
}

func (t *txn) SaveTransaction(tx *ledger.Transaction) (uint64, error) {
	if tx == nil {
		return 0, fmt.Errorf("%w: transaction", ledger.ErrNilParam)
	}
	seen := make(map[uint64]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in]; dup {
			return 0, fmt.Errorf("%w: utxo %d listed twice", ledger.ErrStoreConflict, in)
		}
		seen[in] = struct{}{}
		n, err := t.TransactionsReferencingInput(in)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, fmt.Errorf("%w: utxo %d already spent", ledger.ErrStoreConflict, in)
		}
	}

	cp := tx.Clone()
	row := TransactionDB{
		Inputs:     cp.Inputs,
		Outputs:    cp.Outputs,
		Signatures: cp.Signatures,
		IsMint:     cp.IsMint,
	}
	if err := t.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("sqlstore: insert transaction: %w", err)
	}

	for _, in := range cp.Inputs {
		err := t.db.Create(&SpentInputDB{UTXOID: in, TransactionID: row.ID}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("%w: utxo %d already spent", ledger.ErrStoreConflict, in)
		}
		if err != nil {
			return 0, fmt.Errorf("sqlstore: insert spent index: %w", err)
		}
	}
	return row.ID, nil
}
