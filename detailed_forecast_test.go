package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentMockProvider(weather Weather) *mockProvider {
	return &mockProvider{
		name:            "openweather",
		supportsCurrent: true,
		getCurrentFunc: func(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error) {
			weather.CityID = cityID
			weather.CityName = cityName
			return weather, nil
		},
	}
}

func baseCurrentWeather(ts time.Time) Weather {
	return Weather{
		Timestamp:   ts,
		Temperature: 24,
		FeelsLike:   26,
		TempMin:     18,
		TempMax:     28,
		Humidity:    60,
		Pressure:    1015,
		Visibility:  10000,
		Clouds:      20,
		WindSpeed:   12,
	}
}

func TestDetailedForecast(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	openMeteo := calmMockProvider(start)
	openWeather := currentMockProvider(baseCurrentWeather(start))
	cfg := newTestConfig(t, openMeteo, openWeather)

	forecast, err := cfg.DetailedForecast(context.Background(), "3550308")
	require.NoError(t, err)

	assert.Equal(t, "3550308", forecast.CityID)
	assert.Equal(t, "São Paulo", forecast.CityName)
	assert.Equal(t, "SP", forecast.CityState)
	assert.True(t, forecast.ExtendedAvailable)
	assert.Len(t, forecast.DailyForecasts, 16)
	assert.Len(t, forecast.HourlyForecasts, 48)
	assert.NotNil(t, forecast.CurrentWeather.Alerts)

	// The nearest-hour enrichment keeps the OpenWeather-only fields.
	assert.Equal(t, 26.0, forecast.CurrentWeather.FeelsLike)
	assert.Equal(t, 1015, forecast.CurrentWeather.Pressure)
	// The hourly-sampled fields come from the hourly series.
	assert.Equal(t, 22.0, forecast.CurrentWeather.Temperature)
}

func TestDetailedForecastDegradedDaily(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	openMeteo := calmMockProvider(start)
	openMeteo.getDailyFunc = func(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
		return nil, errors.New("daily upstream 500")
	}
	cfg := newTestConfig(t, openMeteo, currentMockProvider(baseCurrentWeather(start)))

	forecast, err := cfg.DetailedForecast(context.Background(), "3550308")
	require.NoError(t, err)

	assert.False(t, forecast.ExtendedAvailable)
	assert.Empty(t, forecast.DailyForecasts)
	assert.NotEmpty(t, forecast.HourlyForecasts)
	assert.NotZero(t, forecast.CurrentWeather.Temperature)
}

func TestDetailedForecastDegradedHourly(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	openMeteo := calmMockProvider(start)
	openMeteo.getHourlyFunc = func(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
		return nil, errors.New("hourly upstream 500")
	}
	cfg := newTestConfig(t, openMeteo, currentMockProvider(baseCurrentWeather(start)))

	forecast, err := cfg.DetailedForecast(context.Background(), "3550308")
	require.NoError(t, err)

	assert.True(t, forecast.ExtendedAvailable, "daily succeeded")
	assert.Empty(t, forecast.HourlyForecasts)
	assert.Len(t, forecast.DailyForecasts, 16)
	// Without hourly data the OpenWeather current block stands as-is.
	assert.Equal(t, 24.0, forecast.CurrentWeather.Temperature)
}

func TestDetailedForecastCurrentFailureIsFatal(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	openWeather := &mockProvider{
		name: "openweather",
		getCurrentFunc: func(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error) {
			return Weather{}, errors.New("unauthorized")
		},
	}
	cfg := newTestConfig(t, calmMockProvider(start), openWeather)

	_, err := cfg.DetailedForecast(context.Background(), "3550308")
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "GeoProviderError", reqErr.Kind)
	assert.Equal(t, 502, reqErr.Status)
}

func TestDetailedForecastUnknownCity(t *testing.T) {
	cfg := newTestConfig(t, &mockProvider{}, &mockProvider{})

	_, err := cfg.DetailedForecast(context.Background(), "0000000")
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "CityNotFound", reqErr.Kind)
}
