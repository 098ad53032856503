package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
)

type cacheEntry struct {
	data     []types.OHLCV
	storedAt time.Time
}

// MemoryCache implements DataCache using in-memory storage. Entries older
// than the TTL are treated as missing; a zero TTL never expires.
type MemoryCache struct {
	cache map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves data from cache if available
func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}

	// Return a copy to prevent external modifications
	result := make([]types.OHLCV, len(entry.data))
	copy(result, entry.data)
	return result, true
}

// Set stores data in cache
func (c *MemoryCache) Set(key string, data []types.OHLCV) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Store a copy to prevent external modifications
	cached := make([]types.OHLCV, len(data))
	copy(cached, data)
	c.cache[key] = cacheEntry{data: cached, storedAt: c.now()}
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]cacheEntry)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedProvider wraps another BarProvider with caching functionality
type CachedProvider struct {
	provider BarProvider
	cache    DataCache
	log      zerolog.Logger
}

// NewCachedProvider creates a new cached data provider
func NewCachedProvider(provider BarProvider, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	return NewCachedProviderWithCache(provider, NewMemoryCache(ttl), logger)
}

// NewCachedProviderWithCache creates a new cached data provider with custom cache
func NewCachedProviderWithCache(provider BarProvider, cache DataCache, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
		log:      logger.With().Str("component", "cached_provider").Logger(),
	}
}

// Name returns the name of the underlying provider with cache indication
func (p *CachedProvider) Name() string {
	return "Cached " + p.provider.Name()
}

// FetchBars serves repeated requests from the cache. Empty results and
// errors are not cached.
func (p *CachedProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error) {
	key := cacheKey(symbol, start, end, interval)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	p.log.Debug().Str("symbol", symbol).Str("interval", interval).Msg("Loading historical data")
	bars, err := p.provider.FetchBars(ctx, symbol, start, end, interval)
	if err != nil {
		p.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load data")
		return nil, err
	}

	if len(bars) > 0 {
		p.cache.Set(key, bars)
	}
	p.log.Debug().Str("symbol", symbol).Int("records", len(bars)).Msg("Loaded and cached data")
	return bars, nil
}

// Cache returns the underlying cache for external management
func (p *CachedProvider) Cache() DataCache {
	return p.cache
}

func cacheKey(symbol string, start, end time.Time, interval string) string {
	return fmt.Sprintf("%s|%s|%d|%d", symbol, interval, start.Unix(), end.Unix())
}
