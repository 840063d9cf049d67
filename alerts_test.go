package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findAlert(alerts []WeatherAlert, code string) (WeatherAlert, bool) {
	for _, a := range alerts {
		if a.Code == code {
			return a, true
		}
	}
	return WeatherAlert{}, false
}

func alertTestAnchor() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, saoPaulo)
}

func TestGenerateAlertsClearCity(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now, 168, nil)
	daily := makeDailySeries(now, 16, nil)

	alerts := generateAlerts(hourly, daily, now)
	assert.Empty(t, alerts)
}

func TestGenerateAlertsApproachingStorm(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now, 168, func(i int, h *HourlyForecast) {
		if i == 3 {
			h.Precipitation = 12
			h.PrecipitationProbability = 90
			h.WindSpeed = 35
			h.ProviderCode = 95
		}
	})

	alerts := generateAlerts(hourly, nil, now)

	storm, ok := findAlert(alerts, AlertStorm)
	require.True(t, ok, "expected a STORM alert")
	assert.Equal(t, SeverityDanger, storm.Severity)
	assert.Equal(t, now.Add(3*time.Hour), storm.Timestamp)

	// The wet hour is followed by two dry hours, so the rain end is the hour
	// after the last wet one.
	require.Contains(t, storm.Details, "rain_ends_at")
	assert.Equal(t, now.Add(4*time.Hour).Format(wireTimeLayout), storm.Details["rain_ends_at"])

	// The storm hour must not additionally surface as a plain rain alert.
	_, ok = findAlert(alerts, AlertModerateRain)
	assert.False(t, ok)
	_, ok = findAlert(alerts, AlertHeavyRain)
	assert.False(t, ok)
}

func TestGenerateAlertsTemperatureSwing(t *testing.T) {
	now := alertTestAnchor()
	maxes := []float64{32, 26, 21, 22}
	daily := makeDailySeries(now, 4, func(i int, d *DailyForecast) {
		d.TempMax = maxes[i]
		d.TempMin = maxes[i] - 8
	})

	alerts := generateAlerts(nil, daily, now)

	drop, ok := findAlert(alerts, AlertTempDrop)
	require.True(t, ok, "expected a TEMP_DROP alert")
	assert.Equal(t, SeverityInfo, drop.Severity)
	assert.Equal(t, -11.0, drop.Details["variation_c"])
	assert.Equal(t, 2, drop.Details["days_between"])
	assert.Equal(t, startOfDay(now).Format("2006-01-02"), drop.Details["day_1_date"])
	assert.Equal(t, startOfDay(now), drop.Timestamp)

	_, ok = findAlert(alerts, AlertTempRise)
	assert.False(t, ok, "a +1°C bump must not trigger TEMP_RISE")
}

func TestGenerateAlertsTemperatureTrendThreshold(t *testing.T) {
	now := alertTestAnchor()

	t.Run("exactly 8 degrees triggers", func(t *testing.T) {
		daily := makeDailySeries(now, 2, func(i int, d *DailyForecast) {
			if i == 0 {
				d.TempMax = 20
			} else {
				d.TempMax = 28
			}
		})
		alerts := generateAlerts(nil, daily, now)
		rise, ok := findAlert(alerts, AlertTempRise)
		require.True(t, ok)
		assert.Equal(t, SeverityWarning, rise.Severity)
		assert.Equal(t, 8.0, rise.Details["variation_c"])
	})

	t.Run("7.9 degrees does not trigger", func(t *testing.T) {
		daily := makeDailySeries(now, 2, func(i int, d *DailyForecast) {
			if i == 0 {
				d.TempMax = 20
			} else {
				d.TempMax = 27.9
			}
		})
		alerts := generateAlerts(nil, daily, now)
		_, ok := findAlert(alerts, AlertTempRise)
		assert.False(t, ok)
	})
}

func TestGenerateAlertsRainEndNeedsTwoDryHours(t *testing.T) {
	now := alertTestAnchor()
	// Rain at hours 2-3, one dry hour, rain again at 5, then dry for good.
	hourly := makeHourlySeries(now, 12, func(i int, h *HourlyForecast) {
		switch i {
		case 2, 3, 5:
			h.Precipitation = 10
			h.PrecipitationProbability = 90
		}
	})

	alerts := generateAlerts(hourly, nil, now)
	rain, ok := findAlert(alerts, AlertModerateRain)
	require.True(t, ok)
	assert.Equal(t, now.Add(2*time.Hour), rain.Timestamp)

	// The single dry hour at index 4 does not end the rain; hours 6 and 7 do.
	require.Contains(t, rain.Details, "rain_ends_at")
	assert.Equal(t, now.Add(6*time.Hour).Format(wireTimeLayout), rain.Details["rain_ends_at"])
}

func TestGenerateAlertsRainExpected(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now, 24, func(i int, h *HourlyForecast) {
		if i == 6 {
			h.PrecipitationProbability = 80
			h.ProviderCode = 61
		}
	})

	alerts := generateAlerts(hourly, nil, now)
	expected, ok := findAlert(alerts, AlertRainExpected)
	require.True(t, ok)
	assert.Equal(t, SeverityInfo, expected.Severity)
	assert.Equal(t, now.Add(6*time.Hour), expected.Timestamp)
}

func TestGenerateAlertsDeduplicatesPerCode(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now, 48, func(i int, h *HourlyForecast) {
		if i == 10 || i == 30 {
			h.Precipitation = 25
			h.PrecipitationProbability = 95
		}
	})

	alerts := generateAlerts(hourly, nil, now)

	codes := make(map[string]int)
	for _, a := range alerts {
		codes[a.Code]++
	}
	for code, count := range codes {
		assert.Equal(t, 1, count, "code %s appears %d times", code, count)
	}

	heavy, ok := findAlert(alerts, AlertHeavyRain)
	require.True(t, ok)
	assert.Equal(t, now.Add(10*time.Hour), heavy.Timestamp, "dedup keeps the earliest occurrence")
}

func TestGenerateAlertsDailyOnlyRules(t *testing.T) {
	now := alertTestAnchor()

	t.Run("extreme uv", func(t *testing.T) {
		daily := makeDailySeries(now, 3, func(i int, d *DailyForecast) {
			if i == 1 {
				d.UVIndex = 11.5
			}
		})
		alerts := generateAlerts(nil, daily, now)
		uv, ok := findAlert(alerts, AlertExtremeUV)
		require.True(t, ok)
		assert.Equal(t, SeverityWarning, uv.Severity)
	})

	t.Run("heavy rain day warning and alert bands", func(t *testing.T) {
		daily := makeDailySeries(now, 1, func(i int, d *DailyForecast) {
			d.PrecipitationMM = 30
			d.RainProbability = 70
		})
		alerts := generateAlerts(nil, daily, now)
		day, ok := findAlert(alerts, AlertHeavyRainDay)
		require.True(t, ok)
		assert.Equal(t, SeverityWarning, day.Severity)

		daily = makeDailySeries(now, 1, func(i int, d *DailyForecast) {
			d.PrecipitationMM = 60
			d.RainProbability = 80
		})
		alerts = generateAlerts(nil, daily, now)
		day, ok = findAlert(alerts, AlertHeavyRainDay)
		require.True(t, ok)
		assert.Equal(t, SeverityAlert, day.Severity)
	})
}

func TestGenerateAlertsWindAndVisibilityAndTemperature(t *testing.T) {
	now := alertTestAnchor()
	lowVisibility := 400
	hourly := makeHourlySeries(now, 24, func(i int, h *HourlyForecast) {
		switch i {
		case 2:
			h.WindSpeed = 65
		case 4:
			h.Visibility = &lowVisibility
		case 6:
			h.Temperature = 2
		case 8:
			h.Temperature = 38
		}
	})

	alerts := generateAlerts(hourly, nil, now)

	wind, ok := findAlert(alerts, AlertStrongWindDay)
	require.True(t, ok)
	assert.Equal(t, SeverityAlert, wind.Severity)

	visibility, ok := findAlert(alerts, AlertLowVisibility)
	require.True(t, ok)
	assert.Equal(t, SeverityAlert, visibility.Severity)

	_, ok = findAlert(alerts, AlertExtremeCold)
	assert.True(t, ok)
	_, ok = findAlert(alerts, AlertExtremeHot)
	assert.True(t, ok)
}

func TestGenerateAlertsIsDeterministic(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now, 168, func(i int, h *HourlyForecast) {
		if i%17 == 3 {
			h.Precipitation = 6
			h.PrecipitationProbability = 85
		}
		if i == 40 {
			h.WindSpeed = 45
		}
	})
	daily := makeDailySeries(now, 16, func(i int, d *DailyForecast) {
		d.TempMax = 20 + float64(i%12)
	})

	first := generateAlerts(hourly, daily, now)
	second := generateAlerts(hourly, daily, now)
	assert.True(t, reflect.DeepEqual(first, second))
	require.NotEmpty(t, first)
}

func TestGenerateAlertsIgnoresSamplesOutsideWindow(t *testing.T) {
	now := alertTestAnchor()
	hourly := makeHourlySeries(now.Add(-48*time.Hour), 24, func(i int, h *HourlyForecast) {
		h.Precipitation = 20
		h.PrecipitationProbability = 100
	})

	alerts := generateAlerts(hourly, nil, now)
	assert.Empty(t, alerts, "samples entirely in the past produce nothing")
}
