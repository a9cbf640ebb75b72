package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry types. The source leg is recorded as a credit and the destination leg as a debit.
const (
	EntryTypeDebit  = "debit"
	EntryTypeCredit = "credit"
)

// Entry holds one signed movement of value against one account.
type Entry struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"` // negative for the source leg
	Type          string          `json:"entry_type"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateEntryParams is the input data to append a ledger entry.
type CreateEntryParams struct {
	TransactionID int64
	AccountID     int64
	Amount        decimal.Decimal
	Type          string
	Description   string
}
