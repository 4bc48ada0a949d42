package rates

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberleaf/storefront/internal/currency"
	"golang.org/x/sync/singleflight"
)

// Provider owns the exchange rate table. Reads are always served
// synchronously from whatever table is currently held; only Refresh touches
// the network, and it degrades to the best available table instead of
// failing. Consumers keep seeing the previous table while a refresh is in
// flight.
type Provider struct {
	fetcher Fetcher
	cache   Cache

	mu      sync.RWMutex
	table   *Table
	applied uint64

	seq uint64
	sfg singleflight.Group // coalesces concurrent refreshes
}

// NewProvider seeds the held table from the cache. A stale cached table is
// still held as last-known-good; callers decide whether to refresh based on
// Fresh.
func NewProvider(ctx context.Context, fetcher Fetcher, cache Cache) *Provider {
	p := &Provider{fetcher: fetcher, cache: cache}
	if cache != nil {
		table, err := cache.Load(ctx)
		switch {
		case err == nil:
			p.table = table
		case !errors.Is(err, ErrCacheMiss):
			log.Printf("[rates] loading cached rates: %v", err)
		}
	}
	return p
}

// Rates returns the held table, falling back to the hardcoded defaults. The
// result always covers every supported currency and the call never blocks
// on the network.
func (p *Provider) Rates() map[currency.Code]float64 {
	p.mu.RLock()
	table := p.table
	p.mu.RUnlock()

	if table == nil {
		table = DefaultTable()
	}
	return copyRates(table.Rates)
}

// Snapshot returns a copy of the held table with its retrieval timestamp.
func (p *Provider) Snapshot() Table {
	p.mu.RLock()
	table := p.table
	p.mu.RUnlock()

	if table == nil {
		table = DefaultTable()
	}
	return Table{Rates: copyRates(table.Rates), Timestamp: table.Timestamp}
}

// Fresh reports whether the held table is within the freshness window.
func (p *Provider) Fresh(now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table != nil && p.table.Fresh(now)
}

// Refresh attempts one remote round trip. On success the fetched table
// replaces the held one and is persisted to the cache. On any failure the
// error is logged and the best available table is returned; a failed
// refresh is a soft degradation, never an error to the caller. Concurrent
// refreshes share a single fetch, and each attempt is sequence-stamped so a
// completion arriving after a newer one took effect is discarded.
func (p *Provider) Refresh(ctx context.Context) map[currency.Code]float64 {
	v, err, _ := p.sfg.Do("refresh", func() (interface{}, error) {
		seq := atomic.AddUint64(&p.seq, 1)

		fetched, err := p.fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}

		table := &Table{Rates: fetched, Timestamp: time.Now()}
		if p.apply(seq, table) && p.cache != nil {
			if err := p.cache.Store(ctx, table); err != nil {
				log.Printf("[rates] caching rates: %v", err)
			}
		}
		return copyRates(table.Rates), nil
	})
	if err != nil {
		log.Printf("[rates] refresh failed, serving held table: %v", err)
		return p.Rates()
	}
	return v.(map[currency.Code]float64)
}

// apply swaps in a fetched table unless a later attempt already did.
func (p *Provider) apply(seq uint64, table *Table) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.applied {
		return false
	}
	p.applied = seq
	p.table = table
	return true
}

func copyRates(src map[currency.Code]float64) map[currency.Code]float64 {
	dst := make(map[currency.Code]float64, len(src))
	for code, rate := range src {
		dst[code] = rate
	}
	return dst
}
