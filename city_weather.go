package main

import (
	"context"
	"time"
)

// This file implements the single-city use case: fetch both horizons in
// parallel, derive the current conditions from the hourly series, aggregate
// the target day and attach the derived alerts.

// Forecast horizons requested from the providers.
const (
	hourlyHorizonHours = 168
	dailyHorizonDays   = 16
)

// CityWeather returns the fully populated current conditions for one city.
// target is the reference instant; the zero value means now.
func (cfg *apiConfig) CityWeather(ctx context.Context, cityID string, target time.Time) (Weather, error) {
	return cfg.cityWeather(ctx, cityID, target, FetchOptions{}, FetchOptions{})
}

// cityWeather is the shared implementation; the regional orchestrator calls
// it with prefetch maps and a staged-write collector.
func (cfg *apiConfig) cityWeather(ctx context.Context, cityID string, target time.Time, hourlyOpts, dailyOpts FetchOptions) (Weather, error) {
	city, err := cfg.cities.Get(cityID)
	if err != nil {
		return Weather{}, err
	}
	coords, ok := city.Coordinates()
	if !ok {
		return Weather{}, errCoordinatesNotFound(cityID)
	}

	hourly, daily := cfg.fetchHorizons(ctx, coords, cityID, hourlyOpts, dailyOpts)
	if hourly.err != nil {
		cfg.logger.Warn("hourly fetch failed", "city_id", cityID, "error", hourly.err)
		return Weather{}, errWeatherDataNotFound(cityID)
	}
	if daily.err != nil {
		// Degraded: current extraction and aggregates fall back to hourly.
		cfg.logger.Warn("daily fetch failed, continuing with hourly only", "city_id", cityID, "error", daily.err)
	}

	weather := currentFromForecasts(hourly.forecasts, daily.forecasts, cityID, city.Name, target)
	weather.DailyMetrics = dailyAggregates(hourly.forecasts, daily.forecasts, startOfDay(weather.Timestamp))
	weather.Alerts = generateAlerts(hourly.forecasts, daily.forecasts, weather.Timestamp)
	return weather, nil
}

type hourlyResult struct {
	forecasts []HourlyForecast
	err       error
}

type dailyResult struct {
	forecasts []DailyForecast
	err       error
}

// fetchHorizons runs the hourly and daily fetches concurrently and waits for
// both.
func (cfg *apiConfig) fetchHorizons(ctx context.Context, coords Coordinates, cityID string, hourlyOpts, dailyOpts FetchOptions) (hourlyResult, dailyResult) {
	hourlyCh := make(chan hourlyResult, 1)
	dailyCh := make(chan dailyResult, 1)

	go func() {
		forecasts, err := cfg.openMeteo.GetHourlyForecast(ctx, coords, cityID, hourlyHorizonHours, hourlyOpts)
		hourlyCh <- hourlyResult{forecasts: forecasts, err: err}
	}()
	go func() {
		forecasts, err := cfg.openMeteo.GetDailyForecast(ctx, coords, cityID, dailyHorizonDays, dailyOpts)
		dailyCh <- dailyResult{forecasts: forecasts, err: err}
	}()

	return <-hourlyCh, <-dailyCh
}

// selectHourlyForTarget picks the hourly sample for a reference instant. The
// anchor never lies in the past: a past (or zero) target is clamped to now,
// so the first future sample wins; a future target picks the closest future
// sample; with no future sample at all the last available one is returned.
func selectHourlyForTarget(hourly []HourlyForecast, target time.Time) (HourlyForecast, bool) {
	return selectHourlyForTargetAt(hourly, target, time.Now().In(saoPaulo))
}

func selectHourlyForTargetAt(hourly []HourlyForecast, target, now time.Time) (HourlyForecast, bool) {
	if len(hourly) == 0 {
		return HourlyForecast{}, false
	}
	if target.IsZero() || target.Before(now) {
		target = now
	}

	best := -1
	var bestDistance time.Duration
	for i, h := range hourly {
		ts := normalizeTimestamp(h.Timestamp)
		if ts.Before(now) {
			continue
		}
		distance := ts.Sub(target)
		if distance < 0 {
			distance = -distance
		}
		if best == -1 || distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}
	if best == -1 {
		return hourly[len(hourly)-1], true
	}
	return hourly[best], true
}

// currentFromForecasts builds the current-conditions aggregate from the
// selected hourly sample, merged with the matching day's daily record for the
// temperature range and accumulated rain.
func currentFromForecasts(hourly []HourlyForecast, daily []DailyForecast, cityID, cityName string, target time.Time) Weather {
	sample, ok := selectHourlyForTarget(hourly, target)
	if !ok {
		return Weather{CityID: cityID, CityName: cityName, Timestamp: normalizeTimestamp(target)}
	}

	w := Weather{
		CityID:            cityID,
		CityName:          cityName,
		Timestamp:         normalizeTimestamp(sample.Timestamp),
		Temperature:       sample.Temperature,
		TempMin:           sample.Temperature,
		TempMax:           sample.Temperature,
		Humidity:          sample.Humidity,
		Clouds:            sample.CloudCover,
		WindSpeed:         sample.WindSpeed,
		WindDirection:     sample.WindDirection,
		RainProbability:   sample.PrecipitationProbability,
		Rain1h:            sample.Precipitation,
		RainfallIntensity: sample.RainfallIntensity,
		WeatherCode:       sample.WeatherCode,
		Description:       sample.Description,
	}
	if sample.ApparentTemperature != nil {
		w.FeelsLike = *sample.ApparentTemperature
	} else {
		w.FeelsLike = sample.Temperature
	}
	if sample.Pressure != nil {
		w.Pressure = *sample.Pressure
	} else {
		w.Pressure = defaultPressureHPa
	}
	if sample.Visibility != nil {
		w.Visibility = *sample.Visibility
	} else {
		w.Visibility = defaultVisibilityM
	}
	w.CloudsDescription = cloudsDescription(w.Clouds)

	if day := matchDailyForDate(daily, w.Timestamp); day != nil {
		w.TempMin = day.TempMin
		w.TempMax = day.TempMax
		w.RainAccumulatedDay = day.PrecipitationMM
	}
	clampTemperatureRange(&w)
	return w
}

// clampTemperatureRange widens the daily range when the sampled temperature
// falls outside it, keeping temp_min <= temperature <= temp_max.
func clampTemperatureRange(w *Weather) {
	if w.Temperature < w.TempMin {
		w.TempMin = w.Temperature
	}
	if w.Temperature > w.TempMax {
		w.TempMax = w.Temperature
	}
}

// dailyAggregates summarizes the target day from the hourly samples, falling
// back to the daily record when the day lies beyond the hourly horizon.
func dailyAggregates(hourly []HourlyForecast, daily []DailyForecast, day time.Time) *DailyAggregatedMetrics {
	metrics := &DailyAggregatedMetrics{Date: day}
	samples := 0
	for _, h := range hourly {
		ts := normalizeTimestamp(h.Timestamp)
		if !startOfDay(ts).Equal(day) {
			continue
		}
		if samples == 0 {
			metrics.TempMin = h.Temperature
			metrics.TempMax = h.Temperature
		}
		samples++
		metrics.RainVolume += h.Precipitation
		if h.RainfallIntensity > metrics.RainIntensityMax {
			metrics.RainIntensityMax = h.RainfallIntensity
		}
		if h.PrecipitationProbability > metrics.RainProbabilityMax {
			metrics.RainProbabilityMax = h.PrecipitationProbability
		}
		if h.WindSpeed > metrics.WindSpeedMax {
			metrics.WindSpeedMax = h.WindSpeed
		}
		if h.Temperature < metrics.TempMin {
			metrics.TempMin = h.Temperature
		}
		if h.Temperature > metrics.TempMax {
			metrics.TempMax = h.Temperature
		}
	}
	metrics.RainVolume = Round(metrics.RainVolume, 1)

	if samples == 0 {
		record := matchDailyForDate(daily, day)
		if record == nil {
			return nil
		}
		return &DailyAggregatedMetrics{
			Date:               day,
			RainVolume:         record.PrecipitationMM,
			RainIntensityMax:   record.RainfallIntensity,
			RainProbabilityMax: record.RainProbability,
			WindSpeedMax:       record.WindSpeedMax,
			TempMin:            record.TempMin,
			TempMax:            record.TempMax,
		}
	}
	return metrics
}
