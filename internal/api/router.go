package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every storefront endpoint under /api/v1.
func NewRouter(cart *CartHandler, wishlist *WishlistHandler, cat *CatalogHandler, cur *CurrencyHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{ref}", cart.UpdateQuantity)
			r.Delete("/items/{ref}", cart.RemoveItem)
			r.Delete("/", cart.RemoveAll)
			r.Get("/summary", cart.Summary)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlist.Get)
			r.Post("/items", wishlist.AddItem)
			r.Delete("/items/{ref}", wishlist.RemoveItem)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/cigars", cat.ListCigars)
			r.Get("/cigars/{id}", cat.GetCigar)
			r.Get("/accessories", cat.ListAccessories)
			r.Get("/accessories/{id}", cat.GetAccessory)
		})

		r.Get("/currencies", cur.List)
		r.Put("/currency", cur.Set)
	})

	return r
}
