package cache

import (
	"context"
	"errors"

	"github.com/emberleaf/storefront/internal/domain"
)

// CartCache sits in front of the cart repository. Consumers define this
// interface, not the redis implementation.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Set(ctx context.Context, sessionID string, state *domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}

// PreferenceStore holds per-session display settings. A session with no
// stored preference gets the base currency.
type PreferenceStore interface {
	Currency(ctx context.Context, sessionID string) (string, error)
	SetCurrency(ctx context.Context, sessionID, code string) error
}

var ErrCacheMiss = errors.New("cache miss")
