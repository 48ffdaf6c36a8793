package sqlstore

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// AmountColumn stores an amount as an 8-byte big-endian blob. SQLite
// integers are signed and cannot hold the full uint64 range.
type AmountColumn amount.Amount

func (a *AmountColumn) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		if len(v) != 8 {
			return fmt.Errorf("sqlstore: amount column has %d bytes", len(v))
		}
		*a = AmountColumn(binary.BigEndian.Uint64(v))
		return nil
	case nil:
		*a = 0
		return nil
	default:
		return fmt.Errorf("sqlstore: failed to scan amount: unsupported type %T", value)
	}
}

func (a AmountColumn) Value() (driver.Value, error) {
	return binary.BigEndian.AppendUint64(nil, uint64(a)), nil
}

type WalletDB struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Address string `gorm:"not null;uniqueIndex"`
	PubKey  []byte
	CanMint bool `gorm:"not null;default:false"`
}

func (WalletDB) TableName() string { return "wallets" }

type UTXODB struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement"`
	Amount      AmountColumn `gorm:"type:blob;not null"`
	Owner       string       `gorm:"not null;index:utxo_owner_index"`
	OriginTxID  uint64       `gorm:"not null;index"`
	OutputIndex uint32       `gorm:"not null"`
}

func (UTXODB) TableName() string { return "utxos" }

type TransactionDB struct {
	ID         uint64             `gorm:"primaryKey;autoIncrement"`
	Inputs     []uint64           `gorm:"serializer:json;type:text"`
	Outputs    []ledger.Output    `gorm:"serializer:json;type:text"`
	Signatures []ledger.Signature `gorm:"serializer:json;type:text"`
	IsMint     bool               `gorm:"not null;default:false"`
}

func (TransactionDB) TableName() string { return "transactions" }

// SpentInputDB is the spent-index. The primary key on UTXOID rejects a
// second transaction spending the same output.
type SpentInputDB struct {
	UTXOID        uint64 `gorm:"primaryKey;autoIncrement:false;column:utxo_id"`
	TransactionID uint64 `gorm:"not null;index"`
}

func (SpentInputDB) TableName() string { return "spent_inputs" }

func walletFromDB(w *WalletDB) *ledger.Wallet {
	return &ledger.Wallet{ID: w.ID, Address: w.Address, PubKey: w.PubKey, CanMint: w.CanMint}
}

func utxoFromDB(u *UTXODB) *ledger.UTXO {
	return &ledger.UTXO{
		ID:         u.ID,
		Amount:     amount.Amount(u.Amount),
		Owner:      u.Owner,
		OriginTxID: u.OriginTxID,
		Index:      u.OutputIndex,
	}
}

func transactionFromDB(t *TransactionDB) *ledger.Transaction {
	return &ledger.Transaction{
		ID:         t.ID,
		Inputs:     t.Inputs,
		Outputs:    t.Outputs,
		Signatures: t.Signatures,
		IsMint:     t.IsMint,
	}
}
