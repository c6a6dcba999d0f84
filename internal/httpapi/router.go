package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopkit/checkout-core/pkg/metrics"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/cart", h.instrument("get_cart", h.GetCart))
		r.Post("/cart", h.instrument("add_item", h.AddItem))
		r.Put("/cart/{itemID}", h.instrument("update_item", h.UpdateItem))
		r.Delete("/cart/{itemID}", h.instrument("remove_item", h.RemoveItem))

		r.Post("/orders", h.instrument("checkout", h.Checkout))
	})

	return r
}
