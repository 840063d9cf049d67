package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// This file implements the Open-Meteo provider adapter. Open-Meteo serves the
// hourly and daily horizons; current conditions are derived from the hourly
// series by the use-case layer, so SupportsCurrentWeather is false here.

// Cache key prefixes encode provider and dataset.
const (
	openMeteoHourlyKeyPrefix = "openmeteo_hourly_"
	openMeteoDailyKeyPrefix  = "openmeteo_"
)

// Field CSVs requested from Open-Meteo.
const (
	openMeteoHourlyFields = "temperature_2m,apparent_temperature,precipitation,precipitation_probability,relative_humidity_2m,wind_speed_10m,wind_direction_10m,cloud_cover,surface_pressure,visibility,uv_index,is_day,weather_code"
	openMeteoDailyFields  = "temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,precipitation_sum,precipitation_probability_max,precipitation_hours,wind_speed_10m_max,wind_direction_10m_dominant,uv_index_max,sunrise,sunset,cloud_cover_mean,weather_code"
)

type OpenMeteoProvider struct {
	baseURL    string
	cache      Cache
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenMeteoProvider(baseURL string, cache Cache, httpClient *http.Client, logger *slog.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL:    baseURL,
		cache:      cache,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *OpenMeteoProvider) Name() string                 { return "open-meteo" }
func (p *OpenMeteoProvider) SupportsCurrentWeather() bool { return false }
func (p *OpenMeteoProvider) SupportsDailyForecast() bool  { return true }
func (p *OpenMeteoProvider) SupportsHourlyForecast() bool { return true }

func (p *OpenMeteoProvider) hourlyURL(coords Coordinates, hours int) string {
	days := (hours + 23) / 24
	return fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&hourly=%s&forecast_days=%d&timezone=America/Sao_Paulo",
		p.baseURL, coords.Latitude, coords.Longitude, openMeteoHourlyFields, days)
}

func (p *OpenMeteoProvider) dailyURL(coords Coordinates, days int) string {
	return fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&daily=%s&forecast_days=%d&timezone=America/Sao_Paulo",
		p.baseURL, coords.Latitude, coords.Longitude, openMeteoDailyFields, days)
}

// GetCurrentWeather is not available directly; callers derive current
// conditions from the hourly series.
func (p *OpenMeteoProvider) GetCurrentWeather(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error) {
	return Weather{}, fmt.Errorf("open-meteo does not serve current conditions directly")
}

// fetchPayload runs the shared cache-or-fetch algorithm: prefetched value
// first, then the cache, then the upstream with retry; a fresh body is either
// staged for a deferred batch write or committed immediately.
func (p *OpenMeteoProvider) fetchPayload(ctx context.Context, key, url, dataset string, ttl time.Duration, opts FetchOptions) (string, error) {
	if payload, ok := cachedPayload(ctx, p.cache, key, opts); ok {
		providerRequestsTotal.WithLabelValues(p.Name(), dataset, "cache_hit").Inc()
		p.logger.Debug("cache hit", "key", key)
		return payload, nil
	}

	body, err := getWithRetry(ctx, p.httpClient, p.logger, url)
	if err != nil {
		providerRequestsTotal.WithLabelValues(p.Name(), dataset, "error").Inc()
		return "", fmt.Errorf("fetching open-meteo %s forecast: %w", dataset, err)
	}
	providerRequestsTotal.WithLabelValues(p.Name(), dataset, "ok").Inc()

	payload := string(body)
	storePayload(ctx, p.cache, key, payload, ttl, opts)
	return payload, nil
}

func (p *OpenMeteoProvider) GetHourlyForecast(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
	key := openMeteoHourlyKeyPrefix + cityID
	payload, err := p.fetchPayload(ctx, key, p.hourlyURL(coords, hours), "hourly", hourlyCacheTTL, opts)
	if err != nil {
		return nil, err
	}

	forecasts, err := ParseHourlyForecastOMeteo([]byte(payload), p.logger)
	if err != nil {
		return nil, err
	}
	if len(forecasts) > hours {
		forecasts = forecasts[:hours]
	}
	return forecasts, nil
}

func (p *OpenMeteoProvider) GetDailyForecast(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
	key := openMeteoDailyKeyPrefix + cityID
	payload, err := p.fetchPayload(ctx, key, p.dailyURL(coords, days), "daily", dailyCacheTTL, opts)
	if err != nil {
		return nil, err
	}

	forecasts, err := ParseDailyForecastOMeteo([]byte(payload), p.logger)
	if err != nil {
		return nil, err
	}
	if len(forecasts) > days {
		forecasts = forecasts[:days]
	}
	return forecasts, nil
}
