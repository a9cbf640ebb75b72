package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TransactionTypeTransfer = "transfer"
	TransactionTypeExchange = "exchange"
)

// Transaction statuses. Only completed is written today.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Default descriptions.
const (
	DefaultTransferDescription = "Transfer"
	DefaultExchangeDescription = "Currency Exchange"
	TransferOutDescription     = "Transfer out"
	TransferInDescription      = "Transfer in"
)

// Transaction is the parent record of one money movement.
type Transaction struct {
	ID              int64               `json:"id"`
	PublicID        uuid.UUID           `json:"public_id"`
	OwnerID         int64               `json:"owner_id"`
	Type            string              `json:"transaction_type"`
	Description     string              `json:"description"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	FromAccountID   int64               `json:"from_account_id"`
	ToAccountID     int64               `json:"to_account_id"`
	ExchangeRate    decimal.NullDecimal `json:"exchange_rate"`
	ConvertedAmount decimal.NullDecimal `json:"converted_amount"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CreateTransactionParams is the input data to insert a transaction row.
type CreateTransactionParams struct {
	PublicID        uuid.UUID
	OwnerID         int64
	Type            string
	Description     string
	Amount          decimal.Decimal
	Currency        string
	FromAccountID   int64
	ToAccountID     int64
	ExchangeRate    decimal.NullDecimal
	ConvertedAmount decimal.NullDecimal
	Status          string
}

// TransferParams is the validated input of a transfer.
type TransferParams struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	Description   string
}

// ExchangeParams is the validated input of an exchange.
type ExchangeParams struct {
	FromAccountID int64
	ToAccountID   int64
	SourceAmount  decimal.Decimal
	ExchangeRate  decimal.Decimal
	TargetAmount  decimal.NullDecimal // used as is when valid
	Description   string
}

// TransactionResult is what the engine reports back for a committed transaction.
type TransactionResult struct {
	ID              int64               `json:"id"`
	PublicID        uuid.UUID           `json:"public_id"`
	CreatedAt       time.Time           `json:"created_at"`
	ConvertedAmount decimal.NullDecimal `json:"converted_amount,omitempty"`
}
