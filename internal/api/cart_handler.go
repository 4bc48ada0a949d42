package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/emberleaf/storefront/internal/catalog"
	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

// ItemResolver looks a namespaced reference up in the owning catalog.
type ItemResolver interface {
	ResolveLine(ctx context.Context, ref domain.ItemRef) (*domain.CartLine, error)
}

type CartHandler struct {
	svc     *service.CartService
	items   ItemResolver
	timeout time.Duration
}

func NewCartHandler(svc *service.CartService, items ItemResolver, timeout time.Duration) *CartHandler {
	return &CartHandler{svc: svc, items: items, timeout: timeout}
}

type AddItemRequestDTO struct {
	ID       domain.ItemRef `json:"id"`
	Quantity int            `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Change int `json:"change"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	state, err := h.svc.Get(ctx, session)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	// The catalog is authoritative for name and price; clients only send a
	// reference and a quantity.
	line, err := h.items.ResolveLine(ctx, req.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := h.svc.AddItem(ctx, session, *line, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, state)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	ref := domain.ItemRef(chi.URLParam(r, "ref"))
	if _, _, err := ref.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Change == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "change must be non-zero")
		return
	}

	state, err := h.svc.UpdateQuantity(ctx, session, ref, req.Change)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	ref := domain.ItemRef(chi.URLParam(r, "ref"))
	state, err := h.svc.RemoveItem(ctx, session, ref)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *CartHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	state, err := h.svc.RemoveAll(ctx, session)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	summary, err := h.svc.Summarize(ctx, session)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

var _ ItemResolver = (*catalog.Store)(nil)
