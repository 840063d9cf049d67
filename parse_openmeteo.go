package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// This file maps raw Open-Meteo payloads into the domain entities. Open-Meteo
// replies with parallel arrays per field; each index is one hour or one day.
// Wind speeds are requested in km/h and probabilities in percent, so no unit
// conversion is needed here.

type ResponseHourlyOMeteo struct {
	Hourly HourlyBlockOMeteo `json:"hourly"`
}

type HourlyBlockOMeteo struct {
	Time                     []string  `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	ApparentTemperature      []float64 `json:"apparent_temperature"`
	Precipitation            []float64 `json:"precipitation"`
	PrecipitationProbability []int     `json:"precipitation_probability"`
	RelativeHumidity2m       []int     `json:"relative_humidity_2m"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
	WindDirection10m         []int     `json:"wind_direction_10m"`
	CloudCover               []int     `json:"cloud_cover"`
	SurfacePressure          []float64 `json:"surface_pressure"`
	Visibility               []float64 `json:"visibility"`
	UVIndex                  []float64 `json:"uv_index"`
	IsDay                    []int     `json:"is_day"`
	WeatherCode              []int     `json:"weather_code"`
}

type ResponseDailyOMeteo struct {
	Daily DailyBlockOMeteo `json:"daily"`
}

type DailyBlockOMeteo struct {
	Time                        []string  `json:"time"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	ApparentTemperatureMax      []float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin      []float64 `json:"apparent_temperature_min"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
	PrecipitationHours          []float64 `json:"precipitation_hours"`
	WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	WindDirection10mDominant    []int     `json:"wind_direction_10m_dominant"`
	UVIndexMax                  []float64 `json:"uv_index_max"`
	Sunrise                     []string  `json:"sunrise"`
	Sunset                      []string  `json:"sunset"`
	CloudCoverMean              []int     `json:"cloud_cover_mean"`
	WeatherCode                 []int     `json:"weather_code"`
}

func floatAt(values []float64, i int) (float64, bool) {
	if i < len(values) {
		return values[i], true
	}
	return 0, false
}

func intAt(values []int, i int) (int, bool) {
	if i < len(values) {
		return values[i], true
	}
	return 0, false
}

// trimToHHMM reduces an ISO timestamp like "2026-08-25T06:31" to "06:31".
func trimToHHMM(isoTime string) string {
	if len(isoTime) >= 16 {
		return isoTime[11:16]
	}
	return ""
}

// ParseHourlyForecastOMeteo maps an Open-Meteo hourly payload. Missing
// optional fields get domain defaults with a debug note; the proprietary
// code/description pair is finalized through the classifier before any entity
// is returned.
func ParseHourlyForecastOMeteo(body []byte, logger *slog.Logger) ([]HourlyForecast, error) {
	var response ResponseHourlyOMeteo
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding open-meteo hourly payload: %w", err)
	}

	block := response.Hourly
	if len(block.Time) == 0 {
		return nil, fmt.Errorf("open-meteo hourly payload has no samples")
	}

	forecasts := make([]HourlyForecast, 0, len(block.Time))
	for i, rawTime := range block.Time {
		timestamp, err := parseForecastTime(rawTime)
		if err != nil {
			logger.Warn("skipping hourly sample with bad timestamp", "value", rawTime, "error", err)
			continue
		}

		h := HourlyForecast{Timestamp: timestamp}
		h.Temperature, _ = floatAt(block.Temperature2m, i)
		if v, ok := floatAt(block.ApparentTemperature, i); ok {
			h.ApparentTemperature = &v
		}
		h.Precipitation, _ = floatAt(block.Precipitation, i)
		h.PrecipitationProbability, _ = intAt(block.PrecipitationProbability, i)
		h.Humidity, _ = intAt(block.RelativeHumidity2m, i)
		h.WindSpeed, _ = floatAt(block.WindSpeed10m, i)
		h.CloudCover, _ = intAt(block.CloudCover, i)
		h.ProviderCode, _ = intAt(block.WeatherCode, i)

		if v, ok := intAt(block.WindDirection10m, i); ok {
			h.WindDirection = v
		} else {
			logger.Debug("hourly wind direction missing, using default", "index", i)
			h.WindDirection = defaultWindDirection
		}
		if v, ok := floatAt(block.SurfacePressure, i); ok {
			p := int(Round(v, 0))
			h.Pressure = &p
		}
		if v, ok := floatAt(block.Visibility, i); ok {
			m := int(v)
			h.Visibility = &m
		} else {
			logger.Debug("hourly visibility missing, using default", "index", i)
			m := defaultVisibilityM
			h.Visibility = &m
		}
		if v, ok := floatAt(block.UVIndex, i); ok {
			h.UVIndex = &v
		}
		if v, ok := intAt(block.IsDay, i); ok {
			day := v == 1
			h.IsDay = &day
		}

		h.RainfallIntensity = rainfallIntensity(float64(h.PrecipitationProbability), h.Precipitation)
		h.classify()
		forecasts = append(forecasts, h)
	}

	if len(forecasts) == 0 {
		return nil, fmt.Errorf("open-meteo hourly payload produced no valid samples")
	}
	return forecasts, nil
}

// ParseDailyForecastOMeteo maps an Open-Meteo daily payload.
func ParseDailyForecastOMeteo(body []byte, logger *slog.Logger) ([]DailyForecast, error) {
	var response ResponseDailyOMeteo
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding open-meteo daily payload: %w", err)
	}

	block := response.Daily
	if len(block.Time) == 0 {
		return nil, fmt.Errorf("open-meteo daily payload has no entries")
	}

	forecasts := make([]DailyForecast, 0, len(block.Time))
	for i, rawDate := range block.Time {
		date, err := parseForecastDate(rawDate)
		if err != nil {
			logger.Warn("skipping daily entry with bad date", "value", rawDate, "error", err)
			continue
		}

		d := DailyForecast{Date: date}
		d.TempMax, _ = floatAt(block.Temperature2mMax, i)
		d.TempMin, _ = floatAt(block.Temperature2mMin, i)
		if v, ok := floatAt(block.ApparentTemperatureMax, i); ok {
			d.ApparentTempMax = &v
		}
		if v, ok := floatAt(block.ApparentTemperatureMin, i); ok {
			d.ApparentTempMin = &v
		}
		d.PrecipitationMM, _ = floatAt(block.PrecipitationSum, i)
		d.RainProbability, _ = intAt(block.PrecipitationProbabilityMax, i)
		d.PrecipitationHours, _ = floatAt(block.PrecipitationHours, i)
		d.WindSpeedMax, _ = floatAt(block.WindSpeed10mMax, i)
		d.ProviderCode, _ = intAt(block.WeatherCode, i)

		if v, ok := intAt(block.WindDirection10mDominant, i); ok {
			d.WindDirection = v
		} else {
			logger.Debug("daily wind direction missing, using default", "index", i)
			d.WindDirection = defaultWindDirection
		}
		if v, ok := floatAt(block.UVIndexMax, i); ok {
			d.UVIndex = v
		} else {
			logger.Debug("daily uv index missing, using default", "index", i)
		}
		if i < len(block.Sunrise) {
			d.Sunrise = trimToHHMM(block.Sunrise[i])
		}
		if i < len(block.Sunset) {
			d.Sunset = trimToHHMM(block.Sunset[i])
		}
		if v, ok := intAt(block.CloudCoverMean, i); ok {
			d.Clouds = &v
		}

		// The daily intensity uses the day total spread across the wet hours
		// so a long soak and a short burst score differently.
		perHour := d.PrecipitationMM
		if d.PrecipitationHours > 1 {
			perHour = d.PrecipitationMM / d.PrecipitationHours
		}
		d.RainfallIntensity = rainfallIntensity(float64(d.RainProbability), perHour)
		d.classify()
		forecasts = append(forecasts, d)
	}

	if len(forecasts) == 0 {
		return nil, fmt.Errorf("open-meteo daily payload produced no valid entries")
	}
	return forecasts, nil
}
