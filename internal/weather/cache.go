package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Cache stores raw forecast payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedProvider serves forecasts from a cache before calling the upstream
// provider. Cache failures are logged and bypassed.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

// cacheKey rounds to ~1km so nearby sites share an entry.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("weather:forecast:%.2f:%.2f", lat, lon)
}

func (p *CachedProvider) DailyForecast(ctx context.Context, lat, lon float64) ([]DailyForecast, error) {
	key := cacheKey(lat, lon)

	raw, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.Warn("forecast cache read failed", "key", key, "error", err)
	case ok:
		var days []DailyForecast
		if err := json.Unmarshal(raw, &days); err == nil {
			return days, nil
		}
		p.logger.Warn("forecast cache entry corrupt", "key", key)
	}

	days, err := p.next.DailyForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(days); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			p.logger.Warn("forecast cache write failed", "key", key, "error", err)
		}
	}
	return days, nil
}
