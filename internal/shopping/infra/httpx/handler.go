package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onlinestore/shopping-service/internal/shopping/app"
	"github.com/onlinestore/shopping-service/internal/shopping/domain"
	"github.com/onlinestore/shopping-service/internal/shopping/infra/httpx/middlewares"
)

// Handler is pure dispatch: it decodes the request, forwards to the
// orchestration service, and maps errors to status codes. No business logic
// lives here.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	cart, err := h.service.AddCartItem(r.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	cart, err := h.service.RemoveCartItem(r.Context(), customerID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	cart, err := h.service.GetCart(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	var req AddToWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	wishlist, err := h.service.AddToWishlist(r.Context(), customerID, req.ProductID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	wishlist, err := h.service.RemoveFromWishlist(r.Context(), customerID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	products, err := h.service.GetWishlist(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "txn_number is required")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), customerID, req.TransactionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	order, err := h.service.GetOrder(r.Context(), customerID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	orders, err := h.service.GetOrders(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetAllOrders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middlewares.CustomerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), customerID, chi.URLParam(r, "id"), req.NewStatus)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WhoamiResponse{Msg: "/shopping : I am Shopping Service"})
}

// writeServiceError maps domain errors to status codes. Repository and
// transport failures are propagated as 502: this layer performs no recovery.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, "invalid_status", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "shopping_service_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
