package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/repository"
)

// WishlistService follows the cart pattern without its complications: no
// quantities, no cap, no expiry.
type WishlistService struct {
	repo  repository.WishlistRepository
	locks *sessionLocks
}

func NewWishlistService(repo repository.WishlistRepository) *WishlistService {
	return &WishlistService{repo: repo, locks: newSessionLocks()}
}

func (s *WishlistService) Get(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	return s.load(ctx, sessionID)
}

// Add appends the item unless its reference is already present; duplicates
// are a silent no-op.
func (s *WishlistService) Add(ctx context.Context, sessionID string, item domain.WishlistItem) (*domain.Wishlist, error) {
	if item.Ref == "" {
		return nil, ErrInvalidItem
	}

	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	list, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if list.Contains(item.Ref) {
		return list, nil
	}

	// The loaded list stays untouched until the save lands; a repository
	// handing back its own pointer must not see a half-applied mutation.
	updated := &domain.Wishlist{
		SessionID: list.SessionID,
		Items:     append(append([]domain.WishlistItem(nil), list.Items...), item),
	}
	if err := s.repo.Save(ctx, updated); err != nil {
		return list, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}

// Remove filters the reference out; absent references are a no-op.
func (s *WishlistService) Remove(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.Wishlist, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	list, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := make([]domain.WishlistItem, 0, len(list.Items))
	for _, it := range list.Items {
		if it.Ref != ref {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(list.Items) {
		return list, nil
	}

	updated := &domain.Wishlist{SessionID: list.SessionID, Items: kept}
	if err := s.repo.Save(ctx, updated); err != nil {
		return list, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}

func (s *WishlistService) load(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	list, err := s.repo.Load(ctx, sessionID)
	if errors.Is(err, repository.ErrWishlistNotFound) {
		return &domain.Wishlist{SessionID: sessionID, Items: []domain.WishlistItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}
