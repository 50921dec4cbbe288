package model

import (
	"encoding/json"
	"time"
)

// Wallet holds a child's integer balance. The balance is never negative and
// always equals the sum of the wallet's transaction amounts.
type Wallet struct {
	ID        string    `db:"id" json:"id"`
	FamilyID  string    `db:"family_id" json:"familyId"`
	ChildID   string    `db:"child_id" json:"childId"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// WalletTransaction is an append-only ledger entry. Amount is signed: credits
// are positive, debits negative.
type WalletTransaction struct {
	ID        string          `db:"id" json:"id"`
	WalletID  string          `db:"wallet_id" json:"walletId"`
	Amount    int64           `db:"amount" json:"amount"`
	TxType    TransactionType `db:"tx_type" json:"txType"`
	Reason    string          `db:"reason" json:"reason"`
	Note      *string         `db:"note" json:"note,omitempty"`
	Meta      json.RawMessage `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

type CreateWalletTransactionParams struct {
	WalletID string
	Amount   int64
	TxType   TransactionType
	Reason   string
	Note     *string
	Meta     json.RawMessage
}
