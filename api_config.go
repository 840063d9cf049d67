package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// apiConfig carries every dependency the handlers and use cases need. It is
// assembled once at startup and read-only afterwards.
type apiConfig struct {
	logger      *slog.Logger
	cache       Cache
	cities      *CityRepository
	openMeteo   ForecastProvider
	openWeather ForecastProvider
	httpClient  *http.Client

	port                string
	corsOrigin          string
	devMode             bool
	regionalConcurrency int64
	hourlyInterval      time.Duration
	dailyInterval       time.Duration
	warmCityIDs         []string
}

// config builds the apiConfig from the environment. A missing .env file is
// fine; in containers everything comes from real environment variables.
func config() (*apiConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	devMode := getEnvAsBool("DEV_MODE", false)
	logger := newLogger(devMode)

	apiKey, err := getRequiredEnv("OPENWEATHER_API_KEY")
	if err != nil {
		return nil, err
	}

	cities, err := LoadCityRepository(getEnv("MUNICIPALITIES_FILE", ""), logger)
	if err != nil {
		return nil, fmt.Errorf("loading municipality table: %w", err)
	}

	cache, err := newCache(logger)
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient()

	cfg := &apiConfig{
		logger:              logger,
		cache:               cache,
		cities:              cities,
		httpClient:          httpClient,
		port:                getEnv("PORT", "8080"),
		corsOrigin:          getEnv("CORS_ORIGIN", "*"),
		devMode:             devMode,
		regionalConcurrency: int64(getEnvAsInt("REGIONAL_CONCURRENCY", defaultRegionalConcurrency)),
		hourlyInterval:      time.Duration(getEnvAsInt("HOURLY_WARM_INTERVAL_MINUTES", 30)) * time.Minute,
		dailyInterval:       time.Duration(getEnvAsInt("DAILY_WARM_INTERVAL_MINUTES", 180)) * time.Minute,
		warmCityIDs:         splitCityIDs(getEnv("WARM_CITY_IDS", "")),
	}

	cfg.openMeteo = NewOpenMeteoProvider(
		getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast"),
		cache, httpClient, logger,
	)
	cfg.openWeather = NewOpenWeatherProvider(
		getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/3.0/onecall"),
		apiKey, cache, httpClient, logger,
	)

	logger.Info("configuration loaded",
		"dev_mode", cfg.devMode,
		"cache_enabled", getEnvAsBool("CACHE_ENABLED", true),
		"regional_concurrency", cfg.regionalConcurrency,
		"warm_cities", len(cfg.warmCityIDs))
	return cfg, nil
}

// newLogger builds the process logger: human-readable debug output in dev
// mode, JSON at info level otherwise.
func newLogger(devMode bool) *slog.Logger {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// newCache wires the Redis cache, or the no-op cache when caching is off.
func newCache(logger *slog.Logger) (Cache, error) {
	if !getEnvAsBool("CACHE_ENABLED", true) {
		logger.Info("cache disabled, every request goes upstream")
		return noopCache{}, nil
	}

	redisURL, err := getRequiredEnv("REDIS_URL")
	if err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return NewRedisCache(redis.NewClient(opts), logger), nil
}

func splitCityIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer environment variable, using fallback", "key", key, "value", raw)
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean environment variable, using fallback", "key", key, "value", raw)
		return fallback
	}
	return value
}
