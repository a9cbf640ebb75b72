package domain

// Idempotency record states.
const (
	IdempotencyPending   = "pending"
	IdempotencyCompleted = "completed"
)

// IdempotentResponse is the stored outcome of a request made with an idempotency key.
type IdempotentResponse struct {
	State       string `json:"state"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}
