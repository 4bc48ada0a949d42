package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/rates"
	"github.com/emberleaf/storefront/internal/service"
)

type CurrencyHandler struct {
	svc      *service.CartService
	provider *rates.Provider
	timeout  time.Duration
}

func NewCurrencyHandler(svc *service.CartService, provider *rates.Provider, timeout time.Duration) *CurrencyHandler {
	return &CurrencyHandler{svc: svc, provider: provider, timeout: timeout}
}

type SetCurrencyRequestDTO struct {
	Code currency.Code `json:"code"`
}

type CurrenciesResponseDTO struct {
	Base         currency.Code             `json:"base"`
	Selected     currency.Code             `json:"selected"`
	Currencies   []currency.Info           `json:"currencies"`
	Rates        map[currency.Code]float64 `json:"rates"`
	RatesUpdated time.Time                 `json:"ratesUpdated"`
}

// List returns the currency catalog, the session's selection and the rate
// table currently in use.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	snapshot := h.provider.Snapshot()
	respondJSON(w, http.StatusOK, CurrenciesResponseDTO{
		Base:         currency.Base,
		Selected:     h.svc.ActiveCurrency(ctx, session),
		Currencies:   currency.All(),
		Rates:        snapshot.Rates,
		RatesUpdated: snapshot.Timestamp,
	})
}

// Set stores the session's display currency. A stale rate table triggers a
// background refresh; the response never waits on the network and a failed
// refresh is invisible here.
func (h *CurrencyHandler) Set(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionID(r.Context())
	if session == "" {
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
		return
	}

	var req SetCurrencyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.SetCurrency(ctx, session, req.Code); err != nil {
		respondServiceError(w, err)
		return
	}

	if !h.provider.Fresh(time.Now()) {
		go h.provider.Refresh(context.Background())
	}

	respondJSON(w, http.StatusOK, map[string]currency.Code{"currency": req.Code})
}
