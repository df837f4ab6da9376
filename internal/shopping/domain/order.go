package domain

import (
	"fmt"
	"time"
)

// OrderStatus is the closed vocabulary of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions maps each status to the states reachable from it.
// delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ParseOrderStatus validates a raw status string against the closed vocabulary.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// TransitionSources returns every status from which to is reachable. The
// repository filters status writes on this set so two concurrent updates
// cannot both win against the same stale read.
func TransitionSources(to OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// CanTransition reports whether an order may move from one status to another.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order ties a customer's purchase to a completed payment flow via its
// transaction reference. Identity fields are immutable; only Status changes.
type Order struct {
	ID            string      `json:"id" bson:"_id"`
	CustomerID    string      `json:"customer_id" bson:"customer_id"`
	TransactionID string      `json:"transaction_id" bson:"transaction_id"`
	Status        OrderStatus `json:"status" bson:"status"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at"`
}
