package domain

import "time"

// Event types emitted by the shopping service.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is a one-way notification describing a completed state change.
// It carries enough data for a subscriber to act without a follow-up query.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// OrderEventPayload is the payload of order-affecting events.
type OrderEventPayload struct {
	CustomerID string `json:"customer_id"`
	Order      Order  `json:"order"`
}
