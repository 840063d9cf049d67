package main

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// This file implements the regional fan-out: one batch cache prefetch per
// dataset, bounded-concurrency city pipelines sharing staged-write
// collectors, then one batch cache write per dataset.

// defaultRegionalConcurrency bounds the simultaneous city pipelines when
// REGIONAL_CONCURRENCY is unset.
const defaultRegionalConcurrency = 50

// RegionalWeather runs the single-city pipeline for every requested city
// concurrently and returns the successful results only. Failing cities
// (unknown id, missing coordinates, upstream fault) are logged and dropped.
// Output order is not defined; callers match entries by city id.
func (cfg *apiConfig) RegionalWeather(ctx context.Context, cityIDs []string, target time.Time) []Weather {
	if len(cityIDs) == 0 {
		return []Weather{}
	}

	hourlyKeys := make([]string, 0, len(cityIDs))
	dailyKeys := make([]string, 0, len(cityIDs))
	for _, cityID := range cityIDs {
		hourlyKeys = append(hourlyKeys, openMeteoHourlyKeyPrefix+cityID)
		dailyKeys = append(dailyKeys, openMeteoDailyKeyPrefix+cityID)
	}

	prefetchedHourly, prefetchedDaily := cfg.prefetchBoth(ctx, hourlyKeys, dailyKeys)

	hourlyWrites := NewCacheWrites()
	dailyWrites := NewCacheWrites()

	sem := semaphore.NewWeighted(cfg.regionalConcurrency)
	var wg sync.WaitGroup
	results := make(chan Weather, len(cityIDs))

	seen := make(map[string]bool, len(cityIDs))
	for _, cityID := range cityIDs {
		if seen[cityID] {
			continue
		}
		seen[cityID] = true

		wg.Add(1)
		go func(cityID string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				cfg.logger.Warn("regional task not scheduled", "city_id", cityID, "error", err)
				return
			}
			defer sem.Release(1)

			weather, err := cfg.cityWeather(ctx, cityID, target,
				FetchOptions{Prefetched: prefetchedHourly, Writes: hourlyWrites},
				FetchOptions{Prefetched: prefetchedDaily, Writes: dailyWrites},
			)
			if err != nil {
				cfg.logger.Warn("dropping city from regional result", "city_id", cityID, "error", err)
				return
			}
			results <- weather
		}(cityID)
	}

	wg.Wait()
	close(results)

	weathers := make([]Weather, 0, len(cityIDs))
	for w := range results {
		weathers = append(weathers, w)
	}

	cfg.commitStagedWrites(ctx, hourlyWrites, dailyWrites)

	cfg.logger.Info("regional aggregation done",
		"requested", len(cityIDs), "returned", len(weathers))
	return weathers
}

// prefetchBoth issues the hourly and daily batch reads concurrently.
func (cfg *apiConfig) prefetchBoth(ctx context.Context, hourlyKeys, dailyKeys []string) (map[string]string, map[string]string) {
	hourlyCh := make(chan map[string]string, 1)
	dailyCh := make(chan map[string]string, 1)

	go func() { hourlyCh <- cfg.cache.BatchGet(ctx, hourlyKeys) }()
	go func() { dailyCh <- cfg.cache.BatchGet(ctx, dailyKeys) }()

	return <-hourlyCh, <-dailyCh
}

// commitStagedWrites drains both staged-write collectors and runs the two
// batch writes concurrently, each with its own TTL class.
func (cfg *apiConfig) commitStagedWrites(ctx context.Context, hourlyWrites, dailyWrites *CacheWrites) {
	var wg sync.WaitGroup

	if hourlyWrites.Len() > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items := hourlyWrites.Drain()
			cfg.cache.BatchSet(ctx, items, hourlyCacheTTL)
			cfg.logger.Debug("hourly batch write committed", "keys", len(items))
		}()
	}
	if dailyWrites.Len() > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items := dailyWrites.Drain()
			cfg.cache.BatchSet(ctx, items, dailyCacheTTL)
			cfg.logger.Debug("daily batch write committed", "keys", len(items))
		}()
	}
	wg.Wait()
}
