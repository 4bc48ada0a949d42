package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emberleaf/storefront/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrWishlistNotFound = errors.New("wishlist not found")
)

// CartRepository is the durable cart store. Load treats records older than
// the retention window, and records that fail to decode, as absent —
// clearing them as a side effect in both cases. Save stamps last_updated.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) (*domain.CartState, error)
	Save(ctx context.Context, state *domain.CartState) error
	Clear(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// WishlistRepository persists wishlists. No retention window.
type WishlistRepository interface {
	Load(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	Save(ctx context.Context, list *domain.Wishlist) error
}
