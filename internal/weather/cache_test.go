package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	data   map[string][]byte
	ttl    time.Duration
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttl = ttl
	return nil
}

type stubProvider struct {
	days  []DailyForecast
	err   error
	calls int
}

func (s *stubProvider) DailyForecast(context.Context, float64, float64) ([]DailyForecast, error) {
	s.calls++
	return s.days, s.err
}

func TestCachedProvider(t *testing.T) {
	upstream := &stubProvider{days: []DailyForecast{{Date: "2026-04-01", TempMax: 70}}}
	cache := newMemCache()
	p := NewCachedProvider(upstream, cache, 30*time.Minute, nil)

	first, err := p.DailyForecast(context.Background(), 40.71281, -74.00601)
	require.NoError(t, err)
	second, err := p.DailyForecast(context.Background(), 40.7131, -74.0081)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, 30*time.Minute, cache.ttl)
	assert.Contains(t, cache.data, "weather:forecast:40.71:-74.01")
}

func TestCachedProvider_BypassesBrokenCache(t *testing.T) {
	upstream := &stubProvider{days: []DailyForecast{{Date: "2026-04-01"}}}
	cache := newMemCache()
	cache.getErr = errors.New("redis down")

	days, err := NewCachedProvider(upstream, cache, time.Minute, nil).DailyForecast(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, days, 1)

	corrupt := newMemCache()
	corrupt.data[cacheKey(2, 2)] = []byte("not json")
	days, err = NewCachedProvider(upstream, corrupt, time.Minute, nil).DailyForecast(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, days, 1)
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedProvider_UpstreamError(t *testing.T) {
	upstream := &stubProvider{err: ErrForecastUnavailable}
	cache := newMemCache()

	_, err := NewCachedProvider(upstream, cache, time.Minute, nil).DailyForecast(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
	assert.Empty(t, cache.data)
}
