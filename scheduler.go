package main

import (
	"context"
	"time"
)

// This file implements the cache-warm scheduler: a pair of tickers that
// refresh the forecast cache for a configured set of cities so interactive
// requests mostly hit warm entries.

type Scheduler struct {
	cfg            *apiConfig
	hourlyInterval time.Duration
	dailyInterval  time.Duration
	cancel         context.CancelFunc
	done           chan struct{}
}

func NewScheduler(cfg *apiConfig) *Scheduler {
	return &Scheduler{
		cfg:            cfg,
		hourlyInterval: cfg.hourlyInterval,
		dailyInterval:  cfg.dailyInterval,
	}
}

// Start launches the warm loops. It is a no-op when no warm cities are
// configured.
func (s *Scheduler) Start() {
	if len(s.cfg.warmCityIDs) == 0 {
		s.cfg.logger.Info("cache warming disabled, no cities configured")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.cfg.logger.Info("cache warming started",
		"cities", len(s.cfg.warmCityIDs),
		"hourly_interval", s.hourlyInterval,
		"daily_interval", s.dailyInterval)

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	hourlyTicker := time.NewTicker(s.hourlyInterval)
	defer hourlyTicker.Stop()
	dailyTicker := time.NewTicker(s.dailyInterval)
	defer dailyTicker.Stop()

	// Warm immediately at startup instead of waiting a full interval.
	s.warm(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hourlyTicker.C:
			s.warm(ctx)
		case <-dailyTicker.C:
			s.warm(ctx)
		}
	}
}

// warm runs the regional pipeline for the configured cities. The pipeline
// itself stages and batch-commits the cache writes.
func (s *Scheduler) warm(ctx context.Context) {
	start := time.Now()
	weathers := s.cfg.RegionalWeather(ctx, s.cfg.warmCityIDs, time.Time{})
	s.cfg.logger.Info("cache warm cycle done",
		"cities", len(s.cfg.warmCityIDs),
		"warmed", len(weathers),
		"elapsed", time.Since(start).Round(time.Millisecond))
}

// Stop cancels the warm loops and waits for the running cycle to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cfg.logger.Info("cache warming stopped")
}
