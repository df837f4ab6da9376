// Package mongo implements the shopping document repository on MongoDB.
//
// Carts and wishlists are one document per customer; orders are one document
// per order. Every mutation is a single update operation, so it is atomic per
// customer-scoped document — the merge/set semantics the service layer relies
// on live here.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
	"github.com/onlinestore/shopping-service/internal/shopping/ports"
)

var _ ports.Repository = (*Repository)(nil)

type Repository struct {
	carts     *mongo.Collection
	wishlists *mongo.Collection
	orders    *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		carts:     db.Collection("carts"),
		wishlists: db.Collection("wishlists"),
		orders:    db.Collection("orders"),
	}
}

// ManageCart replaces or inserts the line item keyed by product.ID. A remove
// request, or a quantity settling at or below zero, deletes the line item
// outright so the cart never retains zero-quantity lines.
func (r *Repository) ManageCart(ctx context.Context, customerID string, product domain.Product, qty int, remove bool) (domain.Cart, error) {
	if remove || qty <= 0 {
		_, err := r.carts.UpdateOne(ctx,
			bson.M{"customer_id": customerID},
			bson.M{"$pull": bson.M{"items": bson.M{"product._id": product.ID}}},
		)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("mongo: remove cart item %q: %w", product.ID, err)
		}
		return r.Cart(ctx, customerID)
	}

	item := domain.CartItem{Product: product, Quantity: qty}

	// Replace-or-append in one pipeline update so the merge is a single
	// atomic operation on the cart document: two writers racing on the same
	// product id can never leave two lines behind.
	_, err := r.carts.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		cartMergePipeline(item),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mongo: merge cart item %q: %w", product.ID, err)
	}

	return r.Cart(ctx, customerID)
}

// cartMergePipeline keeps every line except the one carrying item's product
// id and appends the new line, all within one $set stage. $ifNull covers the
// upsert case where the document (and its items array) does not exist yet.
func cartMergePipeline(item domain.CartItem) mongo.Pipeline {
	keep := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$items", bson.A{}}},
		"as":    "line",
		"cond":  bson.M{"$ne": bson.A{"$$line.product._id", item.Product.ID}},
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"items": bson.M{"$concatArrays": bson.A{keep, bson.A{item}}},
		}}},
	}
}

// EnsureIndexes creates the unique per-customer indexes the upsert paths rely
// on, so racing upserts cannot create duplicate cart or wishlist documents.
// Call it once at startup.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "customer_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{r.carts, r.wishlists} {
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongo: create customer_id index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (r *Repository) Cart(ctx context.Context, customerID string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.carts.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mongo: load cart for %q: %w", customerID, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// ManageWishlist adds or removes a product id in the customer's wishlist set.
// $addToSet / $pull give the set semantics: duplicate adds and absent removes
// are no-ops.
func (r *Repository) ManageWishlist(ctx context.Context, customerID, productID string, remove bool) (domain.Wishlist, error) {
	var update bson.M
	var opts []*options.UpdateOptions
	if remove {
		update = bson.M{"$pull": bson.M{"product_ids": productID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"product_ids": productID}}
		opts = append(opts, options.Update().SetUpsert(true))
	}

	_, err := r.wishlists.UpdateOne(ctx, bson.M{"customer_id": customerID}, update, opts...)
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("mongo: manage wishlist for %q: %w", customerID, err)
	}
	return r.WishlistByCustomerID(ctx, customerID)
}

func (r *Repository) WishlistByCustomerID(ctx context.Context, customerID string) (domain.Wishlist, error) {
	var wishlist domain.Wishlist
	err := r.wishlists.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&wishlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Wishlist{CustomerID: customerID, ProductIDs: []string{}}, nil
	}
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("mongo: load wishlist for %q: %w", customerID, err)
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []string{}
	}
	return wishlist, nil
}

func (r *Repository) CreateNewOrder(ctx context.Context, customerID, transactionID string) (domain.Order, error) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		TransactionID: transactionID,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("mongo: create order for %q: %w", customerID, err)
	}
	return order, nil
}

// Order is keyed by both customer and order id: ownership is enforced here,
// at the repository boundary.
func (r *Repository) Order(ctx context.Context, customerID, orderID string) (domain.Order, error) {
	var order domain.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": orderID, "customer_id": customerID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("mongo: load order %q: %w", orderID, err)
	}
	return order, nil
}

func (r *Repository) Orders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.findOrders(ctx, bson.M{"customer_id": customerID})
}

func (r *Repository) AllOrders(ctx context.Context) ([]domain.Order, error) {
	return r.findOrders(ctx, bson.M{})
}

func (r *Repository) findOrders(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: query orders: %w", err)
	}

	orders := []domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("mongo: decode orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID, customerID string, status domain.OrderStatus) (domain.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	// The status guard makes the transition check part of the write itself:
	// only a document still in a state that may legally move to the target
	// matches, so a concurrent update cannot slip past a stale read.
	filter := bson.M{
		"_id":         orderID,
		"customer_id": customerID,
		"status":      bson.M{"$in": domain.TransitionSources(status)},
	}

	var order domain.Order
	err := r.orders.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Missing order and lost transition race look the same to the guard;
		// re-read to tell them apart.
		if _, readErr := r.Order(ctx, customerID, orderID); readErr != nil {
			return domain.Order{}, readErr
		}
		return domain.Order{}, fmt.Errorf("%w: order %s cannot move to %s", domain.ErrInvalidTransition, orderID, status)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("mongo: update order %q status: %w", orderID, err)
	}
	return order, nil
}
