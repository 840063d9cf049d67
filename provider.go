package main

import (
	"context"
	"sync"
	"time"
)

// This file defines the provider abstraction shared by the Open-Meteo and
// OpenWeather adapters, plus the prefetch/staged-write plumbing the regional
// orchestrator threads through them.

// ForecastProvider is the capability surface every upstream adapter exposes.
// Adapters that don't support a dataset return the corresponding flag false
// and an error from the fetch method.
type ForecastProvider interface {
	Name() string
	SupportsCurrentWeather() bool
	SupportsDailyForecast() bool
	SupportsHourlyForecast() bool

	GetCurrentWeather(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error)
	GetDailyForecast(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error)
	GetHourlyForecast(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error)
}

// FetchOptions lets an orchestrator hand a provider values it already read
// from the cache in a batch (Prefetched) and a staging area for deferred
// cache writes (Writes). With a nil Writes the provider commits its own
// cache write immediately after a successful fetch.
type FetchOptions struct {
	Prefetched map[string]string
	Writes     *CacheWrites
}

// CacheWrites collects raw payloads staged by concurrent city tasks so the
// orchestrator can drain them with one batch write per cache class.
type CacheWrites struct {
	mu    sync.Mutex
	items map[string]string
}

func NewCacheWrites() *CacheWrites {
	return &CacheWrites{items: make(map[string]string)}
}

// Stage records a payload for the deferred batch write. Last writer wins for
// a duplicate key, matching the cache's own write semantics.
func (w *CacheWrites) Stage(key, payload string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items[key] = payload
}

// Drain returns the staged items and resets the collector.
func (w *CacheWrites) Drain() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	items := w.items
	w.items = make(map[string]string)
	return items
}

// Len reports the number of staged payloads.
func (w *CacheWrites) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// cachedPayload resolves a raw payload for key: the caller-supplied prefetch
// map wins, then the cache itself. The boolean reports whether anything was
// found.
func cachedPayload(ctx context.Context, cache Cache, key string, opts FetchOptions) (string, bool) {
	if opts.Prefetched != nil {
		if payload, ok := opts.Prefetched[key]; ok && payload != "" {
			return payload, true
		}
	}
	return cache.Get(ctx, key)
}

// storePayload either stages the payload for a deferred batch write or
// commits it to the cache immediately.
func storePayload(ctx context.Context, cache Cache, key, payload string, ttl time.Duration, opts FetchOptions) {
	if opts.Writes != nil {
		opts.Writes.Stage(key, payload)
		return
	}
	cache.Set(ctx, key, payload, ttl)
}
