package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// This file implements the OpenWeather One-Call provider adapter. One payload
// carries current, hourly and daily data, so all three datasets share a
// single cache entry under the openweather_ prefix.

const openWeatherKeyPrefix = "openweather_"

type OpenWeatherProvider struct {
	baseURL    string
	apiKey     string
	cache      Cache
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenWeatherProvider(baseURL, apiKey string, cache Cache, httpClient *http.Client, logger *slog.Logger) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *OpenWeatherProvider) Name() string                 { return "openweather" }
func (p *OpenWeatherProvider) SupportsCurrentWeather() bool { return true }
func (p *OpenWeatherProvider) SupportsDailyForecast() bool  { return true }
func (p *OpenWeatherProvider) SupportsHourlyForecast() bool { return true }

func (p *OpenWeatherProvider) oneCallURL(coords Coordinates) string {
	return fmt.Sprintf("%s?lat=%.4f&lon=%.4f&appid=%s&units=metric&lang=pt_br&exclude=minutely,alerts",
		p.baseURL, coords.Latitude, coords.Longitude, p.apiKey)
}

// fetchOneCall runs the shared cache-or-fetch algorithm for the One-Call
// payload.
func (p *OpenWeatherProvider) fetchOneCall(ctx context.Context, coords Coordinates, cityID string, opts FetchOptions) (ResponseOneCallOWM, error) {
	key := openWeatherKeyPrefix + cityID

	if payload, ok := cachedPayload(ctx, p.cache, key, opts); ok {
		providerRequestsTotal.WithLabelValues(p.Name(), "onecall", "cache_hit").Inc()
		p.logger.Debug("cache hit", "key", key)
		return ParseOneCallOWM([]byte(payload))
	}

	body, err := getWithRetry(ctx, p.httpClient, p.logger, p.oneCallURL(coords))
	if err != nil {
		providerRequestsTotal.WithLabelValues(p.Name(), "onecall", "error").Inc()
		return ResponseOneCallOWM{}, fmt.Errorf("fetching openweather one-call: %w", err)
	}
	providerRequestsTotal.WithLabelValues(p.Name(), "onecall", "ok").Inc()

	storePayload(ctx, p.cache, key, string(body), hourlyCacheTTL, opts)
	return ParseOneCallOWM(body)
}

// GetCurrentWeather returns the current conditions. When the payload also
// carries hourly data, the hourly record nearest the target overrides the
// hourly-sampled fields (temperature, humidity, wind, precipitation, clouds)
// while the OpenWeather-only fields (feels_like, pressure, visibility) are
// preserved from the current block.
func (p *OpenWeatherProvider) GetCurrentWeather(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error) {
	response, err := p.fetchOneCall(ctx, coords, cityID, FetchOptions{})
	if err != nil {
		return Weather{}, err
	}

	weather := MapCurrentWeatherOWM(response, cityID, cityName, p.logger)

	hourly := MapHourlyForecastOWM(response, p.logger)
	if len(hourly) > 0 {
		if nearest, ok := selectHourlyForTarget(hourly, target); ok {
			weather = overrideWithHourly(weather, nearest)
		}
	}

	if daily := MapDailyForecastOWM(response, p.logger); len(daily) > 0 {
		day := matchDailyForDate(daily, weather.Timestamp)
		if day != nil {
			weather.TempMin = day.TempMin
			weather.TempMax = day.TempMax
			weather.RainAccumulatedDay = day.PrecipitationMM
		}
	}

	return weather, nil
}

func (p *OpenWeatherProvider) GetHourlyForecast(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
	response, err := p.fetchOneCall(ctx, coords, cityID, opts)
	if err != nil {
		return nil, err
	}
	forecasts := MapHourlyForecastOWM(response, p.logger)
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("openweather payload has no hourly entries")
	}
	if len(forecasts) > hours {
		forecasts = forecasts[:hours]
	}
	return forecasts, nil
}

func (p *OpenWeatherProvider) GetDailyForecast(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
	response, err := p.fetchOneCall(ctx, coords, cityID, opts)
	if err != nil {
		return nil, err
	}
	forecasts := MapDailyForecastOWM(response, p.logger)
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("openweather payload has no daily entries")
	}
	if len(forecasts) > days {
		forecasts = forecasts[:days]
	}
	return forecasts, nil
}

// overrideWithHourly replaces the hourly-sampled fields of a current-weather
// aggregate with the given hourly record, keeping provider-only fields.
func overrideWithHourly(weather Weather, hour HourlyForecast) Weather {
	weather.Temperature = hour.Temperature
	weather.Humidity = hour.Humidity
	weather.WindSpeed = hour.WindSpeed
	weather.WindDirection = hour.WindDirection
	weather.Rain1h = hour.Precipitation
	weather.RainProbability = hour.PrecipitationProbability
	weather.Clouds = hour.CloudCover

	weather.RainfallIntensity = rainfallIntensity(float64(weather.RainProbability), weather.Rain1h)
	weather.CloudsDescription = cloudsDescription(weather.Clouds)
	weather.WeatherCode, weather.Description = classifyCondition(
		weather.RainfallIntensity, weather.Rain1h, weather.WindSpeed,
		weather.Clouds, weather.Visibility, weather.Temperature, weather.RainProbability,
	)
	return weather
}

// matchDailyForDate finds the daily entry covering the same São Paulo
// calendar day as t.
func matchDailyForDate(daily []DailyForecast, t time.Time) *DailyForecast {
	day := startOfDay(t)
	for i := range daily {
		if daily[i].Date.Equal(day) {
			return &daily[i]
		}
	}
	return nil
}
