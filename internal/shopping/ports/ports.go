package ports

import (
	"context"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
)

// Repository is the port for the document store that owns all cart, wishlist
// and order state. Mutation primitives must be atomic per customer-scoped
// document; merge/set semantics live behind this boundary, not in the service.
type Repository interface {
	// ManageCart replaces or inserts the line item keyed by product.ID with
	// the given quantity. With remove set (or a resulting quantity <= 0) the
	// line item is deleted outright. Returns the resulting cart projection.
	ManageCart(ctx context.Context, customerID string, product domain.Product, qty int, remove bool) (domain.Cart, error)
	Cart(ctx context.Context, customerID string) (domain.Cart, error)

	// ManageWishlist adds (or with remove set, deletes) a product id in the
	// customer's wishlist set. Duplicate adds and absent removes are no-ops.
	ManageWishlist(ctx context.Context, customerID, productID string, remove bool) (domain.Wishlist, error)
	WishlistByCustomerID(ctx context.Context, customerID string) (domain.Wishlist, error)

	CreateNewOrder(ctx context.Context, customerID, transactionID string) (domain.Order, error)
	Order(ctx context.Context, customerID, orderID string) (domain.Order, error)
	Orders(ctx context.Context, customerID string) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateOrderStatus takes orderID before customerID; the stored contract
	// is keyed that way and callers must preserve the argument order.
	UpdateOrderStatus(ctx context.Context, orderID, customerID string, status domain.OrderStatus) (domain.Order, error)
}

// ProductResolver fetches product snapshots from the catalog service over the
// broker's request/reply channel.
type ProductResolver interface {
	// Resolve returns domain.ErrProductNotFound when the reply is empty.
	Resolve(ctx context.Context, productID string) (domain.Product, error)
	// ResolveBatch issues a single batched call for all ids.
	ResolveBatch(ctx context.Context, productIDs []string) ([]domain.Product, error)
}

// EventNotifier records a domain event for asynchronous delivery. Emit must
// never block on or fail the caller's primary operation.
type EventNotifier interface {
	Emit(ctx context.Context, event domain.Event)
}
