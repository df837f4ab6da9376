package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/onlinestore/shopping-service/internal/shopping/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, secret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/whoami", handler.Whoami)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticate(secret))

		r.Post("/cart", handler.AddCartItem)
		r.Delete("/cart/{id}", handler.RemoveCartItem)
		r.Get("/cart", handler.GetCart)

		r.Post("/wishlist", handler.AddToWishlist)
		r.Get("/wishlist", handler.GetWishlist)
		r.Delete("/wishlist/{id}", handler.RemoveFromWishlist)

		r.Post("/order", handler.CreateOrder)
		r.Get("/order/{id}", handler.GetOrder)
		r.Get("/orders", handler.GetOrders)
		r.Patch("/order/{id}/status", handler.UpdateOrderStatus)

		r.With(middlewares.RequireRole(middlewares.RoleAdmin)).
			Get("/orders/all", handler.GetAllOrders)
	})

	return r
}
