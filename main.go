package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config()
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cities/neighbors/{cityID}", cfg.handlerNeighbors)
	mux.HandleFunc("GET /api/weather/city/{cityID}", cfg.handlerCityWeather)
	mux.HandleFunc("GET /api/weather/city/{cityID}/detailed", cfg.handlerDetailedForecast)
	mux.HandleFunc("POST /api/weather/regional", cfg.handlerRegionalWeather)
	mux.HandleFunc("GET /api/config", cfg.handlerConfig)
	mux.HandleFunc("GET /api/healthz", cfg.handlerReadiness)
	mux.Handle("GET /metrics", promhttp.Handler())
	if cfg.devMode {
		mux.HandleFunc("POST /dev/flushcache", cfg.handlerFlushCache)
		mux.HandleFunc("POST /dev/warm", cfg.handlerWarmCache)
	}

	handler := corsMiddleware(cfg.corsOrigin, metricsMiddleware(requestIDMiddleware(cfg.logger, mux)))

	scheduler := NewScheduler(cfg)
	scheduler.Start()

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		cfg.logger.Info("server listening", "port", cfg.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cfg.logger.Info("shutting down")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.logger.Error("graceful shutdown failed", "error", err)
	}
}
