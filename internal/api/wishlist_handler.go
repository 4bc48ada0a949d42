package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	svc     *service.WishlistService
	items   ItemResolver
	timeout time.Duration
}

func NewWishlistHandler(svc *service.WishlistService, items ItemResolver, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{svc: svc, items: items, timeout: timeout}
}

type AddWishlistItemRequestDTO struct {
	ID domain.ItemRef `json:"id"`
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	list, err := h.svc.Get(ctx, session)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	var req AddWishlistItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "id is required")
		return
	}

	line, err := h.items.ResolveLine(ctx, req.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	list, err := h.svc.Add(ctx, session, domain.WishlistItem{
		Ref:         line.Ref,
		Name:        line.Name,
		Price:       line.Price,
		Category:    line.Category,
		Description: line.Description,
		Image:       line.Image,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, list)
}

func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	ref := domain.ItemRef(chi.URLParam(r, "ref"))
	list, err := h.svc.Remove(ctx, session, ref)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
