package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cardledger/internal/catalog"
)

// Searcher defines the catalog functionality the resolver consumes.
type Searcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error)
}

type searchCacheEntry struct {
	products []catalog.Product
	expires  time.Time
}

// CachedSearcher wraps a catalog client with a TTL cache and a minimum
// spacing between live lookups. Repeated queries within the TTL (common when
// several units share a name) are served from memory without touching the
// catalog.
type CachedSearcher struct {
	client     Searcher
	cache      map[string]searchCacheEntry
	cacheTTL   time.Duration
	minSpacing time.Duration
	mu         sync.Mutex
	lastLookup time.Time
}

var _ Searcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps client with caching and lookup pacing.
func NewCachedSearcher(client Searcher, cacheTTL, minSpacing time.Duration) *CachedSearcher {
	if client == nil {
		return &CachedSearcher{}
	}
	return &CachedSearcher{
		client:     client,
		cache:      make(map[string]searchCacheEntry),
		cacheTTL:   cacheTTL,
		minSpacing: minSpacing,
		lastLookup: time.Unix(0, 0),
	}
}

// SearchProducts serves from cache when fresh, otherwise waits out the
// minimum lookup spacing and queries the underlying client. Failed lookups
// are not cached.
func (s *CachedSearcher) SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("catalog client unavailable")
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(query)), limit)
	now := time.Now()

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && now.Before(entry.expires) {
		products := entry.products
		s.mu.Unlock()
		return products, nil
	}

	wait := s.minSpacing - now.Sub(s.lastLookup)
	if wait > 0 {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		s.mu.Lock()
	}
	s.lastLookup = time.Now()
	s.mu.Unlock()

	products, err := s.client.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.cache != nil {
		s.cache[key] = searchCacheEntry{products: products, expires: time.Now().Add(s.cacheTTL)}
	}
	s.mu.Unlock()
	return products, nil
}
