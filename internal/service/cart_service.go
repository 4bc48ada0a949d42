package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/emberleaf/storefront/internal/cache"
	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

// cacheInvalidateTimeout bounds the post-write cache delete so a slow redis
// never holds up a mutation response.
const cacheInvalidateTimeout = time.Second

// CartService is the source of truth for cart mutations. Every mutation is
// applied as one atomic load-modify-store under a per-session lock, then
// persisted; the derived totals are recomputed in the session's active
// display currency on every read and every mutation, never cached on their
// own.
type CartService struct {
	repo      repository.CartRepository
	cache     cache.CartCache
	prefs     cache.PreferenceStore
	converter *currency.Converter
	locks     *sessionLocks
	sfg       singleflight.Group // prevents cache stampede on reads
}

func NewCartService(repo repository.CartRepository, c cache.CartCache, prefs cache.PreferenceStore, converter *currency.Converter) *CartService {
	return &CartService{
		repo:      repo,
		cache:     c,
		prefs:     prefs,
		converter: converter,
		locks:     newSessionLocks(),
	}
}

// Get returns the session's cart, empty if nothing is persisted or the
// persisted record has expired. Totals reflect the active currency at call
// time.
func (s *CartService) Get(ctx context.Context, sessionID string) (*domain.CartState, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		state, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[cart] cache get error: %v", err) // degraded, keep going
		}

		state, err = s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		// The write-back runs concurrently with whatever the callers do to
		// their results, so it marshals its own snapshot.
		snapshot := state.Clone()
		go func() {
			if err := s.cache.Set(context.Background(), sessionID, snapshot); err != nil {
				log.Printf("[cart] cache set error: %v", err)
			}
		}()
		return state, nil
	})
	if err != nil {
		return nil, err
	}

	// Every coalesced caller receives the same pointer from Do; each one
	// clones before finalize so totals are never written to shared memory.
	state := v.(*domain.CartState).Clone()
	s.finalize(ctx, state)
	return state, nil
}

// AddItem merges the line into the cart. An existing reference has its
// quantity increased; a resulting quantity past the cap rejects the add in
// full and leaves the cart untouched.
func (s *CartService) AddItem(ctx context.Context, sessionID string, line domain.CartLine, quantity int) (*domain.CartState, error) {
	if line.Ref == "" {
		return nil, ErrInvalidItem
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > domain.MaxItemQuantity {
		return nil, NewQuantityLimitError(line.Name)
	}

	return s.mutate(ctx, sessionID, func(state *domain.CartState) error {
		if existing, _ := state.Line(line.Ref); existing != nil {
			if existing.Quantity+quantity > domain.MaxItemQuantity {
				return NewQuantityLimitError(existing.Name)
			}
			existing.Quantity += quantity
			return nil
		}
		line.Quantity = quantity
		state.Items = append(state.Items, line)
		return nil
	})
}

// UpdateQuantity adjusts a line's quantity by delta, clamped to
// [0, MaxItemQuantity]. A result of zero removes the line. An absent
// reference is a no-op, not an error.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, delta int) (*domain.CartState, error) {
	return s.mutate(ctx, sessionID, func(state *domain.CartState) error {
		line, idx := state.Line(ref)
		if line == nil {
			return nil
		}

		q := line.Quantity + delta
		if q > domain.MaxItemQuantity {
			q = domain.MaxItemQuantity
		}
		if q <= 0 {
			state.Items = append(state.Items[:idx], state.Items[idx+1:]...)
			return nil
		}
		line.Quantity = q
		return nil
	})
}

// RemoveItem drops the line unconditionally; absent references are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartState, error) {
	return s.mutate(ctx, sessionID, func(state *domain.CartState) error {
		if _, idx := state.Line(ref); idx >= 0 {
			state.Items = append(state.Items[:idx], state.Items[idx+1:]...)
		}
		return nil
	})
}

// RemoveAll empties the cart and clears the persisted record outright.
func (s *CartService) RemoveAll(ctx context.Context, sessionID string) (*domain.CartState, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state := emptyState(sessionID)
	s.finalize(ctx, state)

	if err := s.repo.Clear(ctx, sessionID); err != nil {
		return state, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.invalidate(sessionID)
	return state, nil
}

// SetCurrency stores the session's display currency. Codes outside the
// catalog are rejected before anything is written.
func (s *CartService) SetCurrency(ctx context.Context, sessionID string, code currency.Code) error {
	if !currency.Supported(code) {
		return currency.ErrUnsupportedCurrency
	}
	if err := s.prefs.SetCurrency(ctx, sessionID, string(code)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// ActiveCurrency returns the session's display currency, defaulting to the
// base currency when no valid preference is stored.
func (s *CartService) ActiveCurrency(ctx context.Context, sessionID string) currency.Code {
	stored, err := s.prefs.Currency(ctx, sessionID)
	if err != nil {
		log.Printf("[cart] reading currency preference: %v", err)
		return currency.Base
	}
	code := currency.Code(stored)
	if !currency.Supported(code) {
		return currency.Base
	}
	return code
}

// SummaryLine is one cart row with its prices rendered in the active
// currency.
type SummaryLine struct {
	Ref       domain.ItemRef `json:"id"`
	Name      string         `json:"name"`
	Quantity  int            `json:"quantity"`
	UnitPrice string         `json:"unitPrice"`
	LineTotal string         `json:"lineTotal"`
}

// Summary is the checkout-adjacent view of the cart: every price converted
// and formatted in the active display currency.
type Summary struct {
	Items      []SummaryLine `json:"items"`
	TotalItems int           `json:"totalItems"`
	Total      string        `json:"total"`
	Currency   currency.Code `json:"currency"`
}

func (s *CartService) Summarize(ctx context.Context, sessionID string) (*Summary, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	code := currency.Code(state.Currency)

	summary := &Summary{
		Items:      make([]SummaryLine, 0, len(state.Items)),
		TotalItems: state.TotalItems,
		Currency:   code,
	}
	var baseTotal float64
	for _, line := range state.Items {
		unit, err := s.converter.Format(line.Price, code)
		if err != nil {
			return nil, err
		}
		lineTotal, err := s.converter.Format(line.Price*float64(line.Quantity), code)
		if err != nil {
			return nil, err
		}
		baseTotal += line.Price * float64(line.Quantity)
		summary.Items = append(summary.Items, SummaryLine{
			Ref:       line.Ref,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}
	total, err := s.converter.Format(baseTotal, code)
	if err != nil {
		return nil, err
	}
	summary.Total = total
	return summary, nil
}

// mutate runs one atomic load-modify-store. A failed apply leaves the
// persisted state untouched; a failed save still returns the mutated state
// because the in-memory result stays authoritative for the caller even when
// durability failed.
func (s *CartService) mutate(ctx context.Context, sessionID string, apply func(*domain.CartState) error) (*domain.CartState, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := apply(state); err != nil {
		return nil, err
	}
	s.finalize(ctx, state)

	if err := s.repo.Save(ctx, state); err != nil {
		return state, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.invalidate(sessionID)
	return state, nil
}

// load reads the authoritative state from the repository, treating absent
// and expired records as an empty cart.
func (s *CartService) load(ctx context.Context, sessionID string) (*domain.CartState, error) {
	state, err := s.repo.Load(ctx, sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyState(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// finalize recomputes the derived totals in the active display currency.
// An unsupported stored preference cannot normally happen; it degrades to
// the base currency rather than taking the cart down.
func (s *CartService) finalize(ctx context.Context, state *domain.CartState) {
	code := s.ActiveCurrency(ctx, state.SessionID)

	totalItems := 0
	var baseTotal float64
	for _, line := range state.Items {
		totalItems += line.Quantity
		baseTotal += line.Price * float64(line.Quantity)
	}

	total, err := s.converter.Convert(baseTotal, code)
	if err != nil {
		log.Printf("[cart] converting total to %s: %v", code, err)
		code, total = currency.Base, baseTotal
	}

	state.TotalItems = totalItems
	state.TotalPrice = total
	state.Currency = string(code)
}

func (s *CartService) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheInvalidateTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("[cart] cache invalidate error: %v", err)
	}
}

func emptyState(sessionID string) *domain.CartState {
	return &domain.CartState{
		SessionID: sessionID,
		Items:     []domain.CartLine{},
	}
}
