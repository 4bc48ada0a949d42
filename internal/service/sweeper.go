package service

import (
	"context"
	"log"
	"time"

	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/repository"
)

// Sweeper prunes carts past the retention window in the background. The
// store's TTL index does the same eventually; the sweeper keeps the window
// tight and logs what it removed.
type Sweeper struct {
	repo     repository.CartRepository
	interval time.Duration
}

func NewSweeper(repo repository.CartRepository, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-domain.CartRetention)
	removed, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Printf("[sweeper] pruning expired carts: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[sweeper] pruned %d expired carts", removed)
	}
}
