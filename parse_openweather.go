package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// This file maps the OpenWeather One-Call 3.0 payload. One body carries the
// current conditions plus 48 hourly and 8 daily entries. OpenWeather reports
// wind in m/s and probability as 0-1, so both are normalized here; rain
// volumes are mm/h already.

type ResponseOneCallOWM struct {
	TimezoneOffset int          `json:"timezone_offset"`
	Current        CurrentOWM   `json:"current"`
	Hourly         []HourOWM    `json:"hourly"`
	Daily          []DayOWM     `json:"daily"`
}

type CurrentOWM struct {
	Dt         int64        `json:"dt"`
	Temp       float64      `json:"temp"`
	FeelsLike  float64      `json:"feels_like"`
	Pressure   int          `json:"pressure"`
	Humidity   int          `json:"humidity"`
	UVI        float64      `json:"uvi"`
	Clouds     int          `json:"clouds"`
	Visibility int          `json:"visibility"`
	WindSpeed  float64      `json:"wind_speed"`
	WindDeg    int          `json:"wind_deg"`
	Rain       RainOWM      `json:"rain"`
	Snow       RainOWM      `json:"snow"`
	Weather    []WeatherOWM `json:"weather"`
}

type HourOWM struct {
	Dt         int64        `json:"dt"`
	Temp       float64      `json:"temp"`
	FeelsLike  float64      `json:"feels_like"`
	Pressure   int          `json:"pressure"`
	Humidity   int          `json:"humidity"`
	UVI        float64      `json:"uvi"`
	Clouds     int          `json:"clouds"`
	Visibility int          `json:"visibility"`
	WindSpeed  float64      `json:"wind_speed"`
	WindDeg    int          `json:"wind_deg"`
	Pop        float64      `json:"pop"`
	Rain       RainOWM      `json:"rain"`
	Weather    []WeatherOWM `json:"weather"`
}

type DayOWM struct {
	Dt        int64        `json:"dt"`
	Sunrise   int64        `json:"sunrise"`
	Sunset    int64        `json:"sunset"`
	Temp      TempOWM      `json:"temp"`
	FeelsLike FeelsOWM     `json:"feels_like"`
	Pressure  int          `json:"pressure"`
	Humidity  int          `json:"humidity"`
	WindSpeed float64      `json:"wind_speed"`
	WindDeg   int          `json:"wind_deg"`
	Clouds    int          `json:"clouds"`
	Pop       float64      `json:"pop"`
	Rain      float64      `json:"rain"`
	UVI       float64      `json:"uvi"`
	Weather   []WeatherOWM `json:"weather"`
}

type TempOWM struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type FeelsOWM struct {
	Day   float64 `json:"day"`
	Night float64 `json:"night"`
}

type RainOWM struct {
	OneHour float64 `json:"1h"`
	ThreeHours float64 `json:"3h"`
}

// PerHour resolves the hourly volume, deriving it from the 3-hour bucket when
// only that field is present.
func (r RainOWM) PerHour() float64 {
	if r.OneHour > 0 {
		return r.OneHour
	}
	if r.ThreeHours > 0 {
		return r.ThreeHours / 3
	}
	return 0
}

type WeatherOWM struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

func firstWeatherCode(entries []WeatherOWM) int {
	if len(entries) == 0 {
		return 0
	}
	return entries[0].ID
}

const msToKmh = 3.6

// ParseOneCallOWM decodes the full One-Call payload.
func ParseOneCallOWM(body []byte) (ResponseOneCallOWM, error) {
	var response ResponseOneCallOWM
	if err := json.Unmarshal(body, &response); err != nil {
		return ResponseOneCallOWM{}, fmt.Errorf("decoding openweather payload: %w", err)
	}
	return response, nil
}

// MapCurrentWeatherOWM builds the current-conditions aggregate from the
// One-Call current block.
func MapCurrentWeatherOWM(response ResponseOneCallOWM, cityID, cityName string, logger *slog.Logger) Weather {
	current := response.Current

	visibility := current.Visibility
	if visibility == 0 {
		logger.Debug("openweather current visibility missing, using default", "city_id", cityID)
		visibility = defaultVisibilityM
	}
	pressure := current.Pressure
	if pressure == 0 {
		logger.Debug("openweather current pressure missing, using default", "city_id", cityID)
		pressure = defaultPressureHPa
	}

	rain1h := current.Rain.PerHour() + current.Snow.PerHour()

	w := Weather{
		CityID:        cityID,
		CityName:      cityName,
		Timestamp:     time.Unix(current.Dt, 0).In(saoPaulo),
		Temperature:   current.Temp,
		FeelsLike:     current.FeelsLike,
		TempMin:       current.Temp,
		TempMax:       current.Temp,
		Humidity:      current.Humidity,
		Pressure:      pressure,
		Visibility:    visibility,
		Clouds:        current.Clouds,
		WindSpeed:     Round(current.WindSpeed*msToKmh, 1),
		WindDirection: current.WindDeg,
		Rain1h:        rain1h,
	}

	// Current blocks carry no probability; a falling volume is certainty.
	if rain1h > 0 {
		w.RainProbability = 100
	}
	w.RainfallIntensity = rainfallIntensity(float64(w.RainProbability), w.Rain1h)
	w.CloudsDescription = cloudsDescription(w.Clouds)
	w.WeatherCode, w.Description = classifyCondition(
		w.RainfallIntensity, w.Rain1h, w.WindSpeed, w.Clouds, w.Visibility, w.Temperature, w.RainProbability,
	)
	return w
}

// MapHourlyForecastOWM maps the One-Call hourly block.
func MapHourlyForecastOWM(response ResponseOneCallOWM, logger *slog.Logger) []HourlyForecast {
	forecasts := make([]HourlyForecast, 0, len(response.Hourly))
	for i, hour := range response.Hourly {
		h := HourlyForecast{
			Timestamp:                time.Unix(hour.Dt, 0).In(saoPaulo),
			Temperature:              hour.Temp,
			Precipitation:            hour.Rain.PerHour(),
			PrecipitationProbability: int(Round(hour.Pop*100, 0)),
			Humidity:                 hour.Humidity,
			WindSpeed:                Round(hour.WindSpeed*msToKmh, 1),
			WindDirection:            hour.WindDeg,
			CloudCover:               hour.Clouds,
			ProviderCode:             firstWeatherCode(hour.Weather),
		}
		feels := hour.FeelsLike
		h.ApparentTemperature = &feels
		if hour.Pressure > 0 {
			p := hour.Pressure
			h.Pressure = &p
		}
		visibility := hour.Visibility
		if visibility == 0 {
			logger.Debug("openweather hourly visibility missing, using default", "index", i)
			visibility = defaultVisibilityM
		}
		h.Visibility = &visibility
		uvi := hour.UVI
		h.UVIndex = &uvi

		h.RainfallIntensity = rainfallIntensity(float64(h.PrecipitationProbability), h.Precipitation)
		h.classify()
		forecasts = append(forecasts, h)
	}
	return forecasts
}

// MapDailyForecastOWM maps the One-Call daily block.
func MapDailyForecastOWM(response ResponseOneCallOWM, logger *slog.Logger) []DailyForecast {
	forecasts := make([]DailyForecast, 0, len(response.Daily))
	for _, day := range response.Daily {
		clouds := day.Clouds
		d := DailyForecast{
			Date:            startOfDay(time.Unix(day.Dt, 0).In(saoPaulo)),
			TempMin:         day.Temp.Min,
			TempMax:         day.Temp.Max,
			PrecipitationMM: day.Rain,
			RainProbability: int(Round(day.Pop*100, 0)),
			WindSpeedMax:    Round(day.WindSpeed*msToKmh, 1),
			WindDirection:   day.WindDeg,
			UVIndex:         day.UVI,
			Sunrise:         time.Unix(day.Sunrise, 0).In(saoPaulo).Format("15:04"),
			Sunset:          time.Unix(day.Sunset, 0).In(saoPaulo).Format("15:04"),
			Clouds:          &clouds,
			ProviderCode:    firstWeatherCode(day.Weather),
		}
		feelsDay := day.FeelsLike.Day
		feelsNight := day.FeelsLike.Night
		d.ApparentTempMax = &feelsDay
		d.ApparentTempMin = &feelsNight

		// OpenWeather has no wet-hours field; treat the day volume as a
		// single-hour burst, which is the conservative intensity reading.
		d.RainfallIntensity = rainfallIntensity(float64(d.RainProbability), d.PrecipitationMM)
		d.classify()
		forecasts = append(forecasts, d)
	}
	if len(forecasts) == 0 {
		logger.Debug("openweather payload has no daily entries")
	}
	return forecasts
}
