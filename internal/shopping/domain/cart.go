package domain

// CartItem is one (product, quantity) line within a cart. The product snapshot
// is captured at the time the line was added.
type CartItem struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

// Cart holds the line items of a single customer, ordered by insertion.
// At most one line exists per product id.
type Cart struct {
	CustomerID string     `json:"customer_id" bson:"customer_id"`
	Items      []CartItem `json:"items" bson:"items"`
}

// Wishlist is the stored set of product ids a customer has saved. Product
// facts are resolved only when the wishlist is read.
type Wishlist struct {
	CustomerID string   `json:"customer_id" bson:"customer_id"`
	ProductIDs []string `json:"product_ids" bson:"product_ids"`
}
