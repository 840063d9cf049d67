package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectHourlyForTargetAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, saoPaulo)
	series := makeHourlySeries(time.Date(2026, 3, 10, 0, 0, 0, 0, saoPaulo), 24, func(i int, h *HourlyForecast) {
		h.Temperature = float64(i)
	})

	testCases := []struct {
		name         string
		target       time.Time
		expectedHour int
	}{
		{name: "zero target clamps to now and picks the first future sample", target: time.Time{}, expectedHour: 10},
		{name: "past target clamps to now", target: now.Add(-5 * time.Hour), expectedHour: 10},
		{name: "future target picks the closest future sample", target: time.Date(2026, 3, 10, 15, 10, 0, 0, saoPaulo), expectedHour: 15},
		{name: "future target rounds to the nearer hour", target: time.Date(2026, 3, 10, 15, 40, 0, 0, saoPaulo), expectedHour: 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sample, ok := selectHourlyForTargetAt(series, tc.target, now)
			require.True(t, ok)
			assert.Equal(t, tc.expectedHour, sample.Timestamp.Hour())
		})
	}

	t.Run("no future sample falls back to the last available", func(t *testing.T) {
		late := time.Date(2026, 3, 11, 12, 0, 0, 0, saoPaulo)
		sample, ok := selectHourlyForTargetAt(series, time.Time{}, late)
		require.True(t, ok)
		assert.Equal(t, 23, sample.Timestamp.Hour())
	})

	t.Run("empty series", func(t *testing.T) {
		_, ok := selectHourlyForTargetAt(nil, time.Time{}, now)
		assert.False(t, ok)
	})
}

func TestCurrentFromForecastsMergesDaily(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	hourly := makeHourlySeries(start, 24, func(i int, h *HourlyForecast) {
		h.Temperature = 25
	})
	daily := makeDailySeries(start, 2, func(i int, d *DailyForecast) {
		d.TempMin = 15
		d.TempMax = 28
		d.PrecipitationMM = 7.5
	})

	weather := currentFromForecasts(hourly, daily, "3550308", "São Paulo", time.Time{})

	assert.Equal(t, "3550308", weather.CityID)
	assert.Equal(t, 25.0, weather.Temperature)
	assert.Equal(t, 15.0, weather.TempMin)
	assert.Equal(t, 28.0, weather.TempMax)
	assert.Equal(t, 7.5, weather.RainAccumulatedDay)
	assert.GreaterOrEqual(t, weather.Temperature, weather.TempMin)
	assert.LessOrEqual(t, weather.Temperature, weather.TempMax)
	assert.NotEmpty(t, weather.CloudsDescription)
}

func TestCurrentFromForecastsClampsTemperatureRange(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	hourly := makeHourlySeries(start, 3, func(i int, h *HourlyForecast) {
		h.Temperature = 31
	})
	daily := makeDailySeries(start, 1, func(i int, d *DailyForecast) {
		d.TempMin = 18
		d.TempMax = 29
	})

	weather := currentFromForecasts(hourly, daily, "3550308", "São Paulo", time.Time{})
	assert.Equal(t, 31.0, weather.Temperature)
	assert.Equal(t, 31.0, weather.TempMax, "range widens to contain the sample")
	assert.Equal(t, 18.0, weather.TempMin)
}

func TestDailyAggregates(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, saoPaulo)
	hourly := makeHourlySeries(day, 48, func(i int, h *HourlyForecast) {
		if i < 24 {
			h.Temperature = float64(10 + i%12)
			h.Precipitation = 0.5
			h.PrecipitationProbability = 40 + i%30
			h.WindSpeed = float64(5 + i%20)
		}
	})

	metrics := dailyAggregates(hourly, nil, day)
	require.NotNil(t, metrics)
	assert.Equal(t, 12.0, metrics.RainVolume, "24 hours of 0.5 mm")
	assert.Equal(t, 10.0, metrics.TempMin)
	assert.Equal(t, 21.0, metrics.TempMax)
	assert.Equal(t, 24.0, metrics.WindSpeedMax)
	assert.Greater(t, metrics.RainProbabilityMax, 0)
}

func TestDailyAggregatesFallsBackToDailyRecord(t *testing.T) {
	day := time.Date(2026, 3, 20, 0, 0, 0, 0, saoPaulo)
	daily := makeDailySeries(day, 1, func(i int, d *DailyForecast) {
		d.PrecipitationMM = 9
		d.TempMin = 14
		d.TempMax = 24
		d.WindSpeedMax = 33
	})

	metrics := dailyAggregates(nil, daily, day)
	require.NotNil(t, metrics)
	assert.Equal(t, 9.0, metrics.RainVolume)
	assert.Equal(t, 14.0, metrics.TempMin)
	assert.Equal(t, 24.0, metrics.TempMax)
	assert.Equal(t, 33.0, metrics.WindSpeedMax)
}

func TestDailyAggregatesNilWhenNothingCoversTheDay(t *testing.T) {
	day := time.Date(2026, 3, 20, 0, 0, 0, 0, saoPaulo)
	assert.Nil(t, dailyAggregates(nil, nil, day))
}

func TestCityWeather(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	provider := &mockProvider{
		supportsHourly: true,
		supportsDaily:  true,
		getHourlyFunc: func(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
			assert.Equal(t, hourlyHorizonHours, hours)
			return makeHourlySeries(start, 48, nil), nil
		},
		getDailyFunc: func(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
			assert.Equal(t, dailyHorizonDays, days)
			return makeDailySeries(start, 16, nil), nil
		},
	}
	cfg := newTestConfig(t, provider, &mockProvider{})

	weather, err := cfg.CityWeather(context.Background(), "3543204", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "3543204", weather.CityID)
	assert.Equal(t, "Ribeirão Corrente", weather.CityName)
	assert.NotNil(t, weather.DailyMetrics)
	assert.NotNil(t, weather.Alerts)
	assert.Empty(t, weather.Alerts, "calm forecast produces no alerts")
}

func TestCityWeatherUnknownCity(t *testing.T) {
	cfg := newTestConfig(t, &mockProvider{}, &mockProvider{})

	_, err := cfg.CityWeather(context.Background(), "0000000", time.Time{})
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "CityNotFound", reqErr.Kind)
}

func TestCityWeatherMissingCoordinates(t *testing.T) {
	cfg := newTestConfig(t, &mockProvider{}, &mockProvider{})

	_, err := cfg.CityWeather(context.Background(), "3520400", time.Time{})
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "CoordinatesNotFound", reqErr.Kind)
}

func TestCityWeatherHourlyFailureIsFatal(t *testing.T) {
	provider := &mockProvider{
		getHourlyFunc: func(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
			return nil, errors.New("upstream down")
		},
		getDailyFunc: func(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
			return makeDailySeries(time.Now().In(saoPaulo), 16, nil), nil
		},
	}
	cfg := newTestConfig(t, provider, &mockProvider{})

	_, err := cfg.CityWeather(context.Background(), "3550308", time.Time{})
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "WeatherDataNotFound", reqErr.Kind)
}

func TestCityWeatherSurvivesDailyFailure(t *testing.T) {
	start := time.Now().In(saoPaulo).Add(time.Hour).Truncate(time.Hour)
	provider := &mockProvider{
		getHourlyFunc: func(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
			return makeHourlySeries(start, 48, nil), nil
		},
		getDailyFunc: func(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
			return nil, errors.New("daily upstream down")
		},
	}
	cfg := newTestConfig(t, provider, &mockProvider{})

	weather, err := cfg.CityWeather(context.Background(), "3550308", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", weather.CityName)
	assert.NotNil(t, weather.DailyMetrics, "aggregates fall back to hourly samples")
}
