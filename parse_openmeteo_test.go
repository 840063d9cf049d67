package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openMeteoHourlyFixture = `{
	"hourly": {
		"time": ["2026-03-10T09:00", "2026-03-10T10:00", "2026-03-10T11:00"],
		"temperature_2m": [22.5, 23.1, 24.0],
		"apparent_temperature": [24.0, 24.8, 25.5],
		"precipitation": [0.0, 2.4, 0.0],
		"precipitation_probability": [5, 80, 10],
		"relative_humidity_2m": [60, 75, 55],
		"wind_speed_10m": [12.0, 18.5, 14.0],
		"wind_direction_10m": [90, 120, 100],
		"cloud_cover": [10, 90, 30],
		"surface_pressure": [1012.4, 1011.8, 1012.0],
		"visibility": [24000.0, 8000.0, 20000.0],
		"uv_index": [5.0, 2.0, 6.5],
		"is_day": [1, 1, 1],
		"weather_code": [1, 61, 2]
	}
}`

func TestParseHourlyForecastOMeteo(t *testing.T) {
	forecasts, err := ParseHourlyForecastOMeteo([]byte(openMeteoHourlyFixture), testLogger())
	require.NoError(t, err)
	require.Len(t, forecasts, 3)

	first := forecasts[0]
	assert.Equal(t, 22.5, first.Temperature)
	require.NotNil(t, first.ApparentTemperature)
	assert.Equal(t, 24.0, *first.ApparentTemperature)
	assert.Equal(t, saoPaulo.String(), first.Timestamp.Location().String())
	assert.Equal(t, 9, first.Timestamp.Hour())
	require.NotNil(t, first.Pressure)
	assert.Equal(t, 1012, *first.Pressure)
	require.NotNil(t, first.Visibility)
	assert.Equal(t, 24000, *first.Visibility)
	require.NotNil(t, first.IsDay)
	assert.True(t, *first.IsDay)
	assert.Equal(t, 0, first.RainfallIntensity)
	assert.Equal(t, 1, first.ProviderCode)

	wet := forecasts[1]
	assert.Equal(t, 2.4, wet.Precipitation)
	assert.Equal(t, 80, wet.PrecipitationProbability)
	assert.Equal(t, rainfallIntensity(80, 2.4), wet.RainfallIntensity)
	assert.NotZero(t, wet.WeatherCode, "classifier must have filled the code")
	assert.NotEmpty(t, wet.Description)
}

func TestParseHourlyForecastOMeteoSkipsBadTimestamps(t *testing.T) {
	body := `{
		"hourly": {
			"time": ["not-a-time", "2026-03-10T10:00"],
			"temperature_2m": [20.0, 21.0]
		}
	}`
	forecasts, err := ParseHourlyForecastOMeteo([]byte(body), testLogger())
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, 21.0, forecasts[0].Temperature)
}

func TestParseHourlyForecastOMeteoDefaultsMissingOptionalFields(t *testing.T) {
	body := `{
		"hourly": {
			"time": ["2026-03-10T09:00"],
			"temperature_2m": [20.0]
		}
	}`
	forecasts, err := ParseHourlyForecastOMeteo([]byte(body), testLogger())
	require.NoError(t, err)
	require.Len(t, forecasts, 1)

	h := forecasts[0]
	assert.Equal(t, defaultWindDirection, h.WindDirection)
	require.NotNil(t, h.Visibility)
	assert.Equal(t, defaultVisibilityM, *h.Visibility)
	assert.Nil(t, h.Pressure)
	assert.Nil(t, h.ApparentTemperature)
}

func TestParseHourlyForecastOMeteoErrors(t *testing.T) {
	_, err := ParseHourlyForecastOMeteo([]byte("not json"), testLogger())
	assert.Error(t, err)

	_, err = ParseHourlyForecastOMeteo([]byte(`{"hourly":{"time":[]}}`), testLogger())
	assert.Error(t, err)
}

const openMeteoDailyFixture = `{
	"daily": {
		"time": ["2026-03-10", "2026-03-11"],
		"temperature_2m_max": [28.0, 25.5],
		"temperature_2m_min": [18.0, 17.0],
		"apparent_temperature_max": [30.0, 26.0],
		"apparent_temperature_min": [17.5, 16.0],
		"precipitation_sum": [12.0, 0.0],
		"precipitation_probability_max": [85, 10],
		"precipitation_hours": [4.0, 0.0],
		"wind_speed_10m_max": [22.0, 15.0],
		"wind_direction_10m_dominant": [140, 90],
		"uv_index_max": [8.5, 7.0],
		"sunrise": ["2026-03-10T06:12", "2026-03-11T06:13"],
		"sunset": ["2026-03-10T18:30", "2026-03-11T18:29"],
		"cloud_cover_mean": [70, 20],
		"weather_code": [61, 1]
	}
}`

func TestParseDailyForecastOMeteo(t *testing.T) {
	forecasts, err := ParseDailyForecastOMeteo([]byte(openMeteoDailyFixture), testLogger())
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	wet := forecasts[0]
	assert.Equal(t, "2026-03-10", wet.Date.Format("2006-01-02"))
	assert.Equal(t, 28.0, wet.TempMax)
	assert.Equal(t, 18.0, wet.TempMin)
	assert.Equal(t, "06:12", wet.Sunrise)
	assert.Equal(t, "18:30", wet.Sunset)
	assert.Equal(t, 4.0, wet.PrecipitationHours)
	require.NotNil(t, wet.Clouds)
	assert.Equal(t, 70, *wet.Clouds)
	assert.Equal(t, 61, wet.ProviderCode)

	// 12 mm over 4 wet hours is 3 mm/h at 85% probability.
	assert.Equal(t, rainfallIntensity(85, 3), wet.RainfallIntensity)

	dry := forecasts[1]
	assert.Equal(t, 0, dry.RainfallIntensity)
	assert.NotZero(t, dry.WeatherCode)
}

func TestParseDailyForecastOMeteoErrors(t *testing.T) {
	_, err := ParseDailyForecastOMeteo([]byte("{"), testLogger())
	assert.Error(t, err)

	_, err = ParseDailyForecastOMeteo([]byte(`{"daily":{"time":[]}}`), testLogger())
	assert.Error(t, err)
}
