package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"cryptobrief/cache"
)

// Fetcher is the upstream price source the provider refreshes from.
type Fetcher interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// cachedPrice is the JSON blob stored under both the fresh and stale keys.
type cachedPrice struct {
	Price    float64 `json:"price"`
	CachedAt int64   `json:"cached_at"`
}

// Provider serves USD spot prices through a two-layer Redis cache: a fresh
// layer with a short TTL, and a stale layer kept longer as a fallback when
// the upstream is down. One batched refresh covers all requested symbols,
// so concurrent readers of one evaluation see a single consistent snapshot.
type Provider struct {
	fetcher  Fetcher
	redis    *cache.RedisClient
	cacheTTL time.Duration
	staleTTL time.Duration
}

// NewProvider creates a price provider. redis may be nil; caching is then
// disabled and every call hits the upstream.
func NewProvider(fetcher Fetcher, redis *cache.RedisClient, cacheTTL, staleTTL time.Duration) *Provider {
	return &Provider{
		fetcher:  fetcher,
		redis:    redis,
		cacheTTL: cacheTTL,
		staleTTL: staleTTL,
	}
}

// GetPrices returns current USD prices for the requested symbols. Symbols
// with no obtainable price (unknown, upstream down and no stale cache) are
// simply absent from the result; the caller decides what absence means.
func (p *Provider) GetPrices(ctx context.Context, symbols []string, forceRefresh bool) map[string]float64 {
	valid := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(s); IsSupported(s) {
			valid = append(valid, s)
		} else {
			log.Printf("⚠️  Unknown crypto symbol: %s", s)
		}
	}
	if len(valid) == 0 {
		return map[string]float64{}
	}

	result := make(map[string]float64, len(valid))
	toFetch := valid

	if !forceRefresh {
		toFetch = p.readFreshCache(ctx, valid, result)
		if len(toFetch) == 0 {
			return result
		}
	}

	fetched, err := p.fetcher.FetchPrices(ctx, toFetch)
	if err != nil {
		log.Printf("⚠️  Price refresh failed, falling back to stale cache: %v", err)
		p.readStaleCache(ctx, toFetch, result)
		return result
	}

	now := time.Now().Unix()
	for sym, price := range fetched {
		result[sym] = price
		p.store(ctx, sym, price, now)
	}

	// Symbols the upstream omitted still get the stale fallback
	missing := make([]string, 0)
	for _, sym := range toFetch {
		if _, ok := result[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) > 0 {
		p.readStaleCache(ctx, missing, result)
	}

	return result
}

// StorePrice caches an externally observed price (e.g. from the live
// ticker stream) in both layers.
func (p *Provider) StorePrice(ctx context.Context, symbol string, price float64) {
	symbol = strings.ToUpper(symbol)
	if !IsSupported(symbol) || price <= 0 {
		return
	}
	p.store(ctx, symbol, price, time.Now().Unix())
}

// readFreshCache fills result from the fresh layer with one MGET and
// returns the symbols still needing a fetch.
func (p *Provider) readFreshCache(ctx context.Context, symbols []string, result map[string]float64) []string {
	if p.redis == nil {
		return symbols
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = freshKey(sym)
	}

	blobs, err := p.redis.MGet(ctx, keys)
	if err != nil {
		log.Printf("⚠️  Price cache read failed: %v", err)
		return symbols
	}

	missing := make([]string, 0, len(symbols))
	for i, blob := range blobs {
		var entry cachedPrice
		if blob == "" || json.Unmarshal([]byte(blob), &entry) != nil || entry.Price <= 0 {
			missing = append(missing, symbols[i])
			continue
		}
		result[symbols[i]] = entry.Price
	}
	return missing
}

func (p *Provider) readStaleCache(ctx context.Context, symbols []string, result map[string]float64) {
	if p.redis == nil {
		return
	}
	for _, sym := range symbols {
		var entry cachedPrice
		if err := p.redis.Get(ctx, staleKey(sym), &entry); err != nil || entry.Price <= 0 {
			continue
		}
		age := time.Since(time.Unix(entry.CachedAt, 0))
		log.Printf("⚠️  Using stale cached price for %s: $%.2f (age: %.0fmin)", sym, entry.Price, age.Minutes())
		result[sym] = entry.Price
	}
}

func (p *Provider) store(ctx context.Context, symbol string, price float64, now int64) {
	if p.redis == nil {
		return
	}
	entry := cachedPrice{Price: price, CachedAt: now}
	if err := p.redis.Set(ctx, freshKey(symbol), entry, p.cacheTTL); err != nil {
		log.Printf("⚠️  Price cache write failed for %s: %v", symbol, err)
		return
	}
	_ = p.redis.Set(ctx, staleKey(symbol), entry, p.staleTTL)
}

func freshKey(symbol string) string {
	return fmt.Sprintf("price:%s", symbol)
}

func staleKey(symbol string) string {
	return fmt.Sprintf("price_stale:%s", symbol)
}
