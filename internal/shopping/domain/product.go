package domain

// Product is a point-in-time snapshot of catalog facts, fetched from the
// catalog service at the moment of use. It is never cached between operations.
type Product struct {
	ID    string  `json:"id" bson:"_id"`
	Name  string  `json:"name" bson:"name"`
	Price float64 `json:"price" bson:"price"`
}
