package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/emberleaf/storefront/internal/catalog"
	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	store     *catalog.Store
	svc       *service.CartService
	converter *currency.Converter
	timeout   time.Duration
}

func NewCatalogHandler(store *catalog.Store, svc *service.CartService, converter *currency.Converter, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{store: store, svc: svc, converter: converter, timeout: timeout}
}

// CigarDTO is a catalog cigar plus its price rendered in the session's
// display currency.
type CigarDTO struct {
	catalog.Cigar
	DisplayPrice string `json:"displayPrice"`
}

type AccessoryDTO struct {
	catalog.Accessory
	DisplayPrice string `json:"displayPrice"`
}

type CigarPageDTO struct {
	Items      []CigarDTO    `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
	Currency   currency.Code `json:"currency"`
}

type AccessoryPageDTO struct {
	Items      []AccessoryDTO `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalPages int            `json:"totalPages"`
	Currency   currency.Code  `json:"currency"`
}

func (h *CatalogHandler) ListCigars(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, err := h.store.ListCigars(ctx, catalog.CigarFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Origin:   q.Get("origin"),
		Strength: q.Get("strength"),
		Sort:     q.Get("sort"),
		Page:     queryInt(q.Get("page")),
		PerPage:  queryInt(q.Get("per_page")),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	code := h.displayCurrency(ctx, r)
	out := CigarPageDTO{
		Items:      make([]CigarDTO, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
		Currency:   code,
	}
	for _, c := range page.Items {
		display, err := h.converter.Format(c.Price, code)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		out.Items = append(out.Items, CigarDTO{Cigar: c, DisplayPrice: display})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) GetCigar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item", "id must be numeric")
		return
	}

	c, err := h.store.GetCigar(ctx, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	code := h.displayCurrency(ctx, r)
	display, err := h.converter.Format(c.Price, code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CigarDTO{Cigar: *c, DisplayPrice: display})
}

func (h *CatalogHandler) ListAccessories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, err := h.store.ListAccessories(ctx, catalog.AccessoryFilter{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     queryInt(q.Get("page")),
		PerPage:  queryInt(q.Get("per_page")),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	code := h.displayCurrency(ctx, r)
	out := AccessoryPageDTO{
		Items:      make([]AccessoryDTO, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
		Currency:   code,
	}
	for _, a := range page.Items {
		display, err := h.converter.Format(a.Price, code)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		out.Items = append(out.Items, AccessoryDTO{Accessory: a, DisplayPrice: display})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) GetAccessory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item", "id must be numeric")
		return
	}

	a, err := h.store.GetAccessory(ctx, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	code := h.displayCurrency(ctx, r)
	display, err := h.converter.Format(a.Price, code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AccessoryDTO{Accessory: *a, DisplayPrice: display})
}

// displayCurrency resolves the session's display currency. Listings stay
// readable without a session, so an anonymous request just gets base prices.
func (h *CatalogHandler) displayCurrency(ctx context.Context, r *http.Request) currency.Code {
	session := sessionID(r.Context())
	if session == "" {
		return currency.Base
	}
	return h.svc.ActiveCurrency(ctx, session)
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
