// Package catalog resolves product snapshots from the catalog service over
// the broker's request/reply channel.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/onlinestore/shopping-service/internal/pkg/broker"
	"github.com/onlinestore/shopping-service/internal/shopping/domain"
	"github.com/onlinestore/shopping-service/internal/shopping/ports"
)

// Message types understood by the catalog service's RPC handler.
const (
	typeViewProduct  = "VIEW_PRODUCT"
	typeViewProducts = "VIEW_PRODUCTS"
)

type rpcRequest struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var _ ports.ProductResolver = (*Resolver)(nil)

// Resolver shapes catalog requests and interprets empty replies as "not
// found". Timeout and retry policy belong to the broker, not here.
type Resolver struct {
	broker  broker.Broker
	channel string
}

func NewResolver(b broker.Broker, channel string) *Resolver {
	return &Resolver{broker: b, channel: channel}
}

func (r *Resolver) Resolve(ctx context.Context, productID string) (domain.Product, error) {
	reply, err := r.broker.Request(ctx, r.channel, rpcRequest{Type: typeViewProduct, Data: productID})
	if err != nil {
		return domain.Product{}, err
	}
	if emptyReply(reply) {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	var product domain.Product
	if err := json.Unmarshal(reply, &product); err != nil {
		return domain.Product{}, fmt.Errorf("catalog: decode product reply: %w", err)
	}
	if product.ID == "" {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return product, nil
}

func (r *Resolver) ResolveBatch(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	reply, err := r.broker.Request(ctx, r.channel, rpcRequest{Type: typeViewProducts, Data: productIDs})
	if err != nil {
		return nil, err
	}
	if emptyReply(reply) {
		return []domain.Product{}, nil
	}

	var products []domain.Product
	if err := json.Unmarshal(reply, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode products reply: %w", err)
	}
	return products, nil
}

// emptyReply treats an absent body or a JSON null as "no record".
func emptyReply(reply []byte) bool {
	trimmed := bytes.TrimSpace(reply)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
