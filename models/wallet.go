package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	TxnCredit = "credit"
	TxnDebit  = "debit"
)

type Wallet struct {
	ID      string          `json:"id"`
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

type WalletTransaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PaymentID   string          `json:"payment_id,omitempty"`
	Created     time.Time       `json:"created"`
}

func WalletFromRecord(r *core.Record) *Wallet {
	return &Wallet{
		ID:      r.Id,
		UserID:  r.GetString("user"),
		Balance: decimal.NewFromFloat(r.GetFloat("balance")),
	}
}

func WalletTransactionFromRecord(r *core.Record) *WalletTransaction {
	return &WalletTransaction{
		ID:          r.Id,
		Type:        r.GetString("type"),
		Amount:      decimal.NewFromFloat(r.GetFloat("amount")),
		Description: r.GetString("description"),
		PaymentID:   r.GetString("payment_id"),
		Created:     r.GetDateTime("created").Time(),
	}
}
