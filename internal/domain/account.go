package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds user balance data for one currency.
type Account struct {
	ID        int64           `json:"id"`
	PublicID  uuid.UUID       `json:"public_id"`
	OwnerID   int64           `json:"owner_id"`
	Name      string          `json:"account_name"`
	Type      string          `json:"account_type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	IsLocked  bool            `json:"is_locked"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateAccountParams is the input data to provision an account.
type CreateAccountParams struct {
	OwnerID  int64
	Name     string
	Type     string
	Currency string
	Balance  decimal.Decimal
	IsLocked bool
}
