package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/emberleaf/storefront/internal/catalog"
	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// respondServiceError maps the mutation-layer error taxonomy onto HTTP. A
// quantity cap hit names the item and the cap so the client can show it
// inline; a persistence failure asks the user to retry.
func respondServiceError(w http.ResponseWriter, err error) {
	var limitErr *service.QuantityLimitError
	switch {
	case errors.As(err, &limitErr):
		respondError(w, http.StatusUnprocessableEntity, "quantity_limit", limitErr.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, service.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, currency.ErrUnsupportedCurrency):
		respondError(w, http.StatusBadRequest, "unsupported_currency", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, service.ErrPersistence):
		respondError(w, http.StatusServiceUnavailable, "persistence_failure", "please try again")
	default:
		log.Printf("unhandled service error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
