// Package app holds the orchestration service: the only entry point the HTTP
// route layer and the inbound broker subscription invoke. It reconciles cart
// and wishlist mutations, resolves product identity through the catalog
// service, and drives order lifecycle transitions. All state lives behind the
// repository port; the service itself is stateless between calls.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
	"github.com/onlinestore/shopping-service/internal/shopping/ports"
)

type Service struct {
	repo     ports.Repository
	resolver ports.ProductResolver
	notifier ports.EventNotifier
}

func NewService(repo ports.Repository, resolver ports.ProductResolver, notifier ports.EventNotifier) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		notifier: notifier,
	}
}

// AddCartItem resolves the product via the catalog service and merges it into
// the customer's cart with the given quantity. The quantity is forwarded
// verbatim, zero and negative included; the repository's merge semantics
// decide the resulting state.
func (s *Service) AddCartItem(ctx context.Context, customerID, productID string, qty int) (domain.Cart, error) {
	product, err := s.resolver.Resolve(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.repo.ManageCart(ctx, customerID, product, qty, false)
}

// RemoveCartItem deletes the line item outright. Removal needs only identity,
// so no catalog round-trip happens here; an absent product id is a no-op that
// still returns the current cart projection.
func (s *Service) RemoveCartItem(ctx context.Context, customerID, productID string) (domain.Cart, error) {
	return s.repo.ManageCart(ctx, customerID, domain.Product{ID: productID}, 0, true)
}

func (s *Service) GetCart(ctx context.Context, customerID string) (domain.Cart, error) {
	return s.repo.Cart(ctx, customerID)
}

// AddToWishlist stores the product id only; product facts are resolved lazily
// when the wishlist is read.
func (s *Service) AddToWishlist(ctx context.Context, customerID, productID string) (domain.Wishlist, error) {
	return s.repo.ManageWishlist(ctx, customerID, productID, false)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, customerID, productID string) (domain.Wishlist, error) {
	return s.repo.ManageWishlist(ctx, customerID, productID, true)
}

// GetWishlist materializes the stored id set into product snapshots with a
// single batched catalog call. A missing or empty wishlist yields an empty
// result and no call at all.
func (s *Service) GetWishlist(ctx context.Context, customerID string) ([]domain.Product, error) {
	wishlist, err := s.repo.WishlistByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(wishlist.ProductIDs) == 0 {
		return []domain.Product{}, nil
	}
	return s.resolver.ResolveBatch(ctx, wishlist.ProductIDs)
}

// CreateOrder records an order against a transaction reference produced by
// the upstream payment flow. The created event is emitted best-effort and
// never fails the call.
func (s *Service) CreateOrder(ctx context.Context, customerID, transactionID string) (domain.Order, error) {
	order, err := s.repo.CreateNewOrder(ctx, customerID, transactionID)
	if err != nil {
		return domain.Order{}, err
	}
	s.notifier.Emit(ctx, newOrderEvent(domain.EventOrderCreated, order))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, customerID, orderID string) (domain.Order, error) {
	return s.repo.Order(ctx, customerID, orderID)
}

func (s *Service) GetOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.Orders(ctx, customerID)
}

// GetAllOrders returns every order in the system with no customer scoping.
// Restricting it to privileged callers is the route layer's job.
func (s *Service) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.AllOrders(ctx)
}

// UpdateOrderStatus validates the requested status against the closed
// vocabulary and the order's current state, then forwards it to the
// repository primitive as (orderID, customerID, status).
func (s *Service) UpdateOrderStatus(ctx context.Context, customerID, orderID, newStatus string) (domain.Order, error) {
	status, err := domain.ParseOrderStatus(newStatus)
	if err != nil {
		return domain.Order{}, err
	}

	current, err := s.repo.Order(ctx, customerID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !current.Status.CanTransition(status) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, status)
	}

	order, err := s.repo.UpdateOrderStatus(ctx, orderID, customerID, status)
	if err != nil {
		return domain.Order{}, err
	}
	s.notifier.Emit(ctx, newOrderEvent(domain.EventOrderStatusChanged, order))
	return order, nil
}

func newOrderEvent(eventType string, order domain.Order) domain.Event {
	return domain.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload: domain.OrderEventPayload{
			CustomerID: order.CustomerID,
			Order:      order,
		},
	}
}
