package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// --- Mocks and fixtures shared by the test files ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCache is a function-field mock for the Cache interface. Unset fields
// behave like an empty cache.
type mockCache struct {
	getFunc      func(ctx context.Context, key string) (string, bool)
	setFunc      func(ctx context.Context, key, value string, ttl time.Duration) bool
	deleteFunc   func(ctx context.Context, key string) bool
	batchGetFunc func(ctx context.Context, keys []string) map[string]string
	batchSetFunc func(ctx context.Context, items map[string]string, ttl time.Duration) map[string]bool
	flushFunc    func(ctx context.Context) error
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", false
}

func (m *mockCache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, ttl)
	}
	return true
}

func (m *mockCache) Delete(ctx context.Context, key string) bool {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return true
}

func (m *mockCache) BatchGet(ctx context.Context, keys []string) map[string]string {
	if m.batchGetFunc != nil {
		return m.batchGetFunc(ctx, keys)
	}
	return map[string]string{}
}

func (m *mockCache) BatchSet(ctx context.Context, items map[string]string, ttl time.Duration) map[string]bool {
	if m.batchSetFunc != nil {
		return m.batchSetFunc(ctx, items, ttl)
	}
	results := make(map[string]bool, len(items))
	for k := range items {
		results[k] = true
	}
	return results
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.flushFunc != nil {
		return m.flushFunc(ctx)
	}
	return nil
}

// mockProvider is a function-field mock for the ForecastProvider interface.
type mockProvider struct {
	name              string
	getCurrentFunc    func(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error)
	getDailyFunc      func(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error)
	getHourlyFunc     func(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error)
	supportsCurrent   bool
	supportsDaily     bool
	supportsHourly    bool
}

func (m *mockProvider) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *mockProvider) SupportsCurrentWeather() bool { return m.supportsCurrent }
func (m *mockProvider) SupportsDailyForecast() bool  { return m.supportsDaily }
func (m *mockProvider) SupportsHourlyForecast() bool { return m.supportsHourly }

func (m *mockProvider) GetCurrentWeather(ctx context.Context, coords Coordinates, cityID, cityName string, target time.Time) (Weather, error) {
	if m.getCurrentFunc != nil {
		return m.getCurrentFunc(ctx, coords, cityID, cityName, target)
	}
	return Weather{}, errors.New("getCurrentFunc not implemented in mock")
}

func (m *mockProvider) GetDailyForecast(ctx context.Context, coords Coordinates, cityID string, days int, opts FetchOptions) ([]DailyForecast, error) {
	if m.getDailyFunc != nil {
		return m.getDailyFunc(ctx, coords, cityID, days, opts)
	}
	return nil, errors.New("getDailyFunc not implemented in mock")
}

func (m *mockProvider) GetHourlyForecast(ctx context.Context, coords Coordinates, cityID string, hours int, opts FetchOptions) ([]HourlyForecast, error) {
	if m.getHourlyFunc != nil {
		return m.getHourlyFunc(ctx, coords, cityID, hours, opts)
	}
	return nil, errors.New("getHourlyFunc not implemented in mock")
}

// newTestConfig wires an apiConfig around the embedded municipality snapshot,
// an empty cache and the given providers.
func newTestConfig(t *testing.T, openMeteo, openWeather ForecastProvider) *apiConfig {
	t.Helper()
	logger := testLogger()
	cities, err := LoadCityRepository("", logger)
	if err != nil {
		t.Fatalf("loading municipality snapshot: %v", err)
	}
	return &apiConfig{
		logger:              logger,
		cache:               &mockCache{},
		cities:              cities,
		openMeteo:           openMeteo,
		openWeather:         openWeather,
		regionalConcurrency: defaultRegionalConcurrency,
		devMode:             true,
		hourlyInterval:      time.Minute,
		dailyInterval:       time.Minute,
	}
}

// makeHourlySeries builds n consecutive hourly samples starting at start,
// with an optional per-sample mutation. Samples are dry and calm by default.
func makeHourlySeries(start time.Time, n int, mutate func(i int, h *HourlyForecast)) []HourlyForecast {
	series := make([]HourlyForecast, 0, n)
	for i := 0; i < n; i++ {
		h := HourlyForecast{
			Timestamp:                start.Add(time.Duration(i) * time.Hour),
			Temperature:              22,
			Precipitation:            0,
			PrecipitationProbability: 5,
			Humidity:                 60,
			WindSpeed:                10,
			WindDirection:            90,
			CloudCover:               10,
		}
		if mutate != nil {
			mutate(i, &h)
		}
		h.RainfallIntensity = rainfallIntensity(float64(h.PrecipitationProbability), h.Precipitation)
		h.classify()
		series = append(series, h)
	}
	return series
}

// makeDailySeries builds n consecutive daily records starting at the São
// Paulo day of start.
func makeDailySeries(start time.Time, n int, mutate func(i int, d *DailyForecast)) []DailyForecast {
	series := make([]DailyForecast, 0, n)
	for i := 0; i < n; i++ {
		d := DailyForecast{
			Date:            startOfDay(start).AddDate(0, 0, i),
			TempMin:         16,
			TempMax:         26,
			PrecipitationMM: 0,
			RainProbability: 5,
			WindSpeedMax:    15,
			WindDirection:   90,
			UVIndex:         6,
			Sunrise:         "06:30",
			Sunset:          "18:00",
		}
		if mutate != nil {
			mutate(i, &d)
		}
		d.RainfallIntensity = rainfallIntensity(float64(d.RainProbability), d.PrecipitationMM)
		d.classify()
		series = append(series, d)
	}
	return series
}
