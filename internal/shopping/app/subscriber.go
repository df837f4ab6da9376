package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Inbound message types other services push at the shopping service.
const (
	MsgAddToCart          = "ADD_TO_CART"
	MsgRemoveFromCart     = "REMOVE_FROM_CART"
	MsgAddToWishlist      = "ADD_TO_WISHLIST"
	MsgRemoveFromWishlist = "REMOVE_FROM_WISHLIST"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type inboundPayload struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"qty"`
}

// HandleBrokerMessage is the subscription hook the broker pushes inbound
// messages through. Messages with an unknown type are logged and dropped;
// they are not an error for the subscription loop.
func (s *Service) HandleBrokerMessage(ctx context.Context, raw []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decode inbound message: %w", err)
	}

	var apply func(context.Context, inboundPayload) error
	switch msg.Type {
	case MsgAddToCart:
		apply = func(ctx context.Context, p inboundPayload) error {
			_, err := s.AddCartItem(ctx, p.CustomerID, p.ProductID, p.Quantity)
			return err
		}
	case MsgRemoveFromCart:
		apply = func(ctx context.Context, p inboundPayload) error {
			_, err := s.RemoveCartItem(ctx, p.CustomerID, p.ProductID)
			return err
		}
	case MsgAddToWishlist:
		apply = func(ctx context.Context, p inboundPayload) error {
			_, err := s.AddToWishlist(ctx, p.CustomerID, p.ProductID)
			return err
		}
	case MsgRemoveFromWishlist:
		apply = func(ctx context.Context, p inboundPayload) error {
			_, err := s.RemoveFromWishlist(ctx, p.CustomerID, p.ProductID)
			return err
		}
	default:
		slog.WarnContext(ctx, "dropping message with unknown type", "type", msg.Type)
		return nil
	}

	// Decode only after the type check: an unknown message is dropped even
	// when it carries no payload at all.
	var p inboundPayload
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return apply(ctx, p)
}
