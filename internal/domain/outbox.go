package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event types and statuses.
const (
	EventTransactionCompleted = "transaction.completed"

	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
)

// OutboxMessage is an event recorded in the same unit as the transaction it describes.
type OutboxMessage struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionCompletedEvent is the payload of transaction.completed messages.
type TransactionCompletedEvent struct {
	ID              int64     `json:"id"`
	PublicID        uuid.UUID `json:"public_id"`
	OwnerID         int64     `json:"owner_id"`
	Type            string    `json:"transaction_type"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	FromAccountID   int64     `json:"from_account_id"`
	ToAccountID     int64     `json:"to_account_id"`
	ExchangeRate    string    `json:"exchange_rate,omitempty"`
	ConvertedAmount string    `json:"converted_amount,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
