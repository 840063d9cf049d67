package main

import (
	"context"
	"time"
)

// This file implements the detailed single-city view: current conditions
// from OpenWeather plus the full Open-Meteo horizons, fetched in parallel
// with graded degradation.

// DetailedForecast assembles the extended view for one city. Current
// conditions failing is fatal; a failed hourly fetch degrades the current
// enrichment and empties the hourly list; a failed daily fetch empties the
// daily list and clears ExtendedAvailable.
func (cfg *apiConfig) DetailedForecast(ctx context.Context, cityID string) (ExtendedForecast, error) {
	city, err := cfg.cities.Get(cityID)
	if err != nil {
		return ExtendedForecast{}, err
	}
	coords, ok := city.Coordinates()
	if !ok {
		return ExtendedForecast{}, errCoordinatesNotFound(cityID)
	}

	type currentResult struct {
		weather Weather
		err     error
	}
	currentCh := make(chan currentResult, 1)
	hourlyCh := make(chan hourlyResult, 1)
	dailyCh := make(chan dailyResult, 1)

	go func() {
		weather, err := cfg.openWeather.GetCurrentWeather(ctx, coords, cityID, city.Name, time.Now().In(saoPaulo))
		currentCh <- currentResult{weather: weather, err: err}
	}()
	go func() {
		forecasts, err := cfg.openMeteo.GetHourlyForecast(ctx, coords, cityID, hourlyHorizonHours, FetchOptions{})
		hourlyCh <- hourlyResult{forecasts: forecasts, err: err}
	}()
	go func() {
		forecasts, err := cfg.openMeteo.GetDailyForecast(ctx, coords, cityID, dailyHorizonDays, FetchOptions{})
		dailyCh <- dailyResult{forecasts: forecasts, err: err}
	}()

	current := <-currentCh
	hourly := <-hourlyCh
	daily := <-dailyCh

	if current.err != nil {
		cfg.logger.Warn("current conditions fetch failed", "city_id", cityID, "error", current.err)
		return ExtendedForecast{}, errUpstreamFault(cfg.openWeather.Name(), current.err)
	}

	forecast := ExtendedForecast{
		CityID:            cityID,
		CityName:          city.Name,
		CityState:         city.State,
		CurrentWeather:    current.weather,
		ExtendedAvailable: true,
	}

	if hourly.err != nil {
		cfg.logger.Warn("hourly fetch failed, serving current only", "city_id", cityID, "error", hourly.err)
		forecast.HourlyForecasts = []HourlyForecast{}
	} else {
		forecast.HourlyForecasts = hourly.forecasts
		if sample, ok := selectHourlyForTarget(hourly.forecasts, time.Time{}); ok {
			forecast.CurrentWeather = overrideWithHourly(forecast.CurrentWeather, sample)
		}
	}

	if daily.err != nil {
		cfg.logger.Warn("daily fetch failed, extended view degraded", "city_id", cityID, "error", daily.err)
		forecast.DailyForecasts = []DailyForecast{}
		forecast.ExtendedAvailable = false
	} else {
		forecast.DailyForecasts = daily.forecasts
	}

	forecast.CurrentWeather.Alerts = generateAlerts(forecast.HourlyForecasts, forecast.DailyForecasts, forecast.CurrentWeather.Timestamp)
	return forecast, nil
}
