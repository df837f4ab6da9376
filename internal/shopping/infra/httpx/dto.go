package httpx

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"qty"`
}

type AddToWishlistRequest struct {
	ProductID string `json:"product_id"`
}

type CreateOrderRequest struct {
	TransactionID string `json:"txn_number"`
}

type UpdateOrderStatusRequest struct {
	NewStatus string `json:"new_status"`
}

type WhoamiResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
