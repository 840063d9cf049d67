package main

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// This file derives weather alerts from the forecast horizons. The generator
// walks the window once, deduplicates per code, enriches rain alerts with the
// predicted rain end and runs a bounded-window temperature-trend analysis.

// Alert code vocabulary. The set is a stable contract with clients; codes are
// never renamed.
const (
	AlertClear         = "CLEAR"
	AlertCloudCover    = "CLOUD_COVER"
	AlertLightRain     = "LIGHT_RAIN"
	AlertModerateRain  = "MODERATE_RAIN"
	AlertHeavyRain     = "HEAVY_RAIN"
	AlertDrizzle       = "DRIZZLE"
	AlertStorm         = "STORM"
	AlertStormRain     = "STORM_RAIN"
	AlertRainExpected  = "RAIN_EXPECTED"
	AlertHeavyRainDay  = "HEAVY_RAIN_DAY"
	AlertStrongWindDay = "STRONG_WIND_DAY"
	AlertExtremeCold   = "EXTREME_COLD"
	AlertExtremeHot    = "EXTREME_HOT"
	AlertExtremeUV     = "EXTREME_UV"
	AlertLowVisibility = "LOW_VISIBILITY"
	AlertTempDrop      = "TEMP_DROP"
	AlertTempRise      = "TEMP_RISE"
)

const (
	// alertDaysLimit bounds the analysis window in days from the target.
	alertDaysLimit = 7
	// hourlyCoverageThreshold is the number of hourly samples a calendar day
	// needs before the daily record is demoted to supplement-only.
	hourlyCoverageThreshold = 20
	// tempTrendWindowDays bounds the trend comparison to the next N days.
	tempTrendWindowDays = 3
	// tempTrendThresholdC is the max-temperature delta that triggers a trend
	// alert.
	tempTrendThresholdC = 8.0
)

// rainAlertCodes are the codes eligible for rain-end enrichment.
var rainAlertCodes = map[string]bool{
	AlertDrizzle:      true,
	AlertLightRain:    true,
	AlertModerateRain: true,
	AlertHeavyRain:    true,
	AlertStorm:        true,
	AlertStormRain:    true,
}

// isThunderstormCode reports whether a raw provider code signals a
// thunderstorm: WMO 95-99 (Open-Meteo) or the OpenWeather 2xx group.
func isThunderstormCode(code int) bool {
	return (code >= 95 && code <= 99) || (code >= 200 && code <= 299)
}

// isRainProviderCode reports whether a raw provider code belongs to a rain
// family: WMO drizzle/rain/showers/storm (51-99) or OpenWeather
// thunderstorm/drizzle/rain (2xx, 3xx, 5xx).
func isRainProviderCode(code int) bool {
	if code >= 51 && code <= 99 {
		return true
	}
	return (code >= 200 && code <= 299) || (code >= 300 && code <= 399) || (code >= 500 && code <= 599)
}

// alertBuckets deduplicates alerts per code during the scan. The default
// policy keeps the earliest timestamp (the most imminent occurrence);
// TEMP_DROP and TEMP_RISE instead keep the largest magnitude and are handled
// by the trend analysis directly.
type alertBuckets struct {
	byCode map[string]WeatherAlert
}

func newAlertBuckets() *alertBuckets {
	return &alertBuckets{byCode: make(map[string]WeatherAlert)}
}

func (b *alertBuckets) add(alert WeatherAlert) {
	existing, ok := b.byCode[alert.Code]
	if !ok || alert.Timestamp.Before(existing.Timestamp) {
		b.byCode[alert.Code] = alert
	}
}

// dayExtremes accumulates per-day temperature extremes for the trend
// analysis.
type dayExtremes struct {
	day  time.Time
	min  float64
	max  float64
	seen bool
}

type trendAccumulator struct {
	byDay map[string]*dayExtremes
}

func newTrendAccumulator() *trendAccumulator {
	return &trendAccumulator{byDay: make(map[string]*dayExtremes)}
}

func (t *trendAccumulator) observe(day time.Time, min, max float64) {
	key := day.Format("2006-01-02")
	e, ok := t.byDay[key]
	if !ok {
		t.byDay[key] = &dayExtremes{day: day, min: min, max: max, seen: true}
		return
	}
	if min < e.min {
		e.min = min
	}
	if max > e.max {
		e.max = max
	}
}

func (t *trendAccumulator) sortedDays() []*dayExtremes {
	days := make([]*dayExtremes, 0, len(t.byDay))
	for _, e := range t.byDay {
		days = append(days, e)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day.Before(days[j].day) })
	return days
}

// generateAlerts derives the alert list for one city from its hourly and
// daily horizons. Hourly samples win for any day they cover; daily records
// supplement days beyond the hourly horizon and carry the daily-only rules
// (UV, heavy-rain-day). Output order is severity descending, then timestamp.
func generateAlerts(hourly []HourlyForecast, daily []DailyForecast, target time.Time) []WeatherAlert {
	now := normalizeTimestamp(target)
	windowEnd := now.AddDate(0, 0, alertDaysLimit)

	buckets := newAlertBuckets()
	trend := newTrendAccumulator()

	// Count hourly samples per calendar day so daily records for covered
	// days are demoted to supplement-only.
	hourlyPerDay := make(map[string]int)
	for _, h := range hourly {
		ts := normalizeTimestamp(h.Timestamp)
		if ts.Before(now) || ts.After(windowEnd) {
			continue
		}
		hourlyPerDay[startOfDay(ts).Format("2006-01-02")]++
	}

	for _, h := range hourly {
		ts := normalizeTimestamp(h.Timestamp)
		if ts.Before(now) || ts.After(windowEnd) {
			continue
		}
		scanHourly(buckets, h, ts)
		trend.observe(startOfDay(ts), h.Temperature, h.Temperature)
	}

	for _, d := range daily {
		day := startOfDay(normalizeTimestamp(d.Date))
		if day.Before(startOfDay(now)) || day.After(windowEnd) {
			continue
		}
		covered := hourlyPerDay[day.Format("2006-01-02")] >= hourlyCoverageThreshold

		// Daily-only rules apply regardless of hourly coverage.
		scanDailyOnly(buckets, d, day)
		if !covered {
			scanDailyAsPoint(buckets, d, day)
		}
		// Hourly temperatures for a covered day may miss the true extremes;
		// fold the daily min/max in regardless.
		trend.observe(day, d.TempMin, d.TempMax)
	}

	alerts := make([]WeatherAlert, 0, len(buckets.byCode)+2)
	for _, alert := range buckets.byCode {
		if rainAlertCodes[alert.Code] {
			if endsAt, ok := rainEndsAt(hourly, alert.Timestamp); ok {
				if alert.Details == nil {
					alert.Details = make(map[string]any)
				}
				alert.Details["rain_ends_at"] = endsAt.Format(wireTimeLayout)
			}
		}
		alerts = append(alerts, alert)
	}

	alerts = append(alerts, temperatureTrendAlerts(trend)...)

	sort.Slice(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if !alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].Timestamp.Before(alerts[j].Timestamp)
		}
		return alerts[i].Code < alerts[j].Code
	})
	return alerts
}

// scanHourly applies the per-point rules to one hourly sample.
func scanHourly(buckets *alertBuckets, h HourlyForecast, ts time.Time) {
	if code, severity, description, ok := rainRule(h.RainfallIntensity, h.Precipitation, h.PrecipitationProbability, h.ProviderCode); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: ts})
	}
	if code, severity, description, ok := windRule(h.WindSpeed); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: ts})
	}
	if h.Visibility != nil {
		if code, severity, description, ok := visibilityRule(*h.Visibility); ok {
			buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: ts})
		}
	}
	if code, severity, description, ok := temperatureRule(h.Temperature); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: ts})
	}
}

// scanDailyAsPoint applies the per-point rules to a daily record standing in
// for an uncovered day.
func scanDailyAsPoint(buckets *alertBuckets, d DailyForecast, day time.Time) {
	perHour := d.PrecipitationMM
	if d.PrecipitationHours > 1 {
		perHour = d.PrecipitationMM / d.PrecipitationHours
	}
	if code, severity, description, ok := rainRule(d.RainfallIntensity, perHour, d.RainProbability, d.ProviderCode); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: day})
	}
	if code, severity, description, ok := windRule(d.WindSpeedMax); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: day})
	}
	if d.Visibility != nil {
		if code, severity, description, ok := visibilityRule(*d.Visibility); ok {
			buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: day})
		}
	}
	if code, severity, description, ok := temperatureRule(d.TempMin); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: day})
	} else if code, severity, description, ok := temperatureRule(d.TempMax); ok {
		buckets.add(WeatherAlert{Code: code, Severity: severity, Description: description, Timestamp: day})
	}
}

// scanDailyOnly applies the rules that only exist at daily resolution.
func scanDailyOnly(buckets *alertBuckets, d DailyForecast, day time.Time) {
	if d.UVIndex >= 11 {
		buckets.add(WeatherAlert{
			Code:        AlertExtremeUV,
			Severity:    SeverityWarning,
			Description: "☀️ Índice UV extremo",
			Timestamp:   day,
			Details:     map[string]any{"uv_index": d.UVIndex},
		})
	}
	if d.PrecipitationMM > 20 && d.RainProbability > 60 && d.RainfallIntensity >= 25 {
		severity := SeverityWarning
		if d.PrecipitationMM >= 50 {
			severity = SeverityAlert
		}
		buckets.add(WeatherAlert{
			Code:        AlertHeavyRainDay,
			Severity:    severity,
			Description: "🌧️ Dia de chuva intensa",
			Timestamp:   day,
			Details: map[string]any{
				"precipitation_mm": Round(d.PrecipitationMM, 1),
				"rain_probability": d.RainProbability,
			},
		})
	}
}

// rainRule maps a point's rainfall metrics to an alert. A thunderstorm
// provider code upgrades to STORM regardless of intensity; with no volume but
// high probability and a rain-family code the softer RAIN_EXPECTED fires.
func rainRule(intensity int, precipitation float64, probability, providerCode int) (string, AlertSeverity, string, bool) {
	if isThunderstormCode(providerCode) {
		return AlertStorm, SeverityDanger, "⛈️ Tempestade prevista", true
	}
	switch {
	case intensity >= 60:
		return AlertHeavyRain, SeverityAlert, "🌧️ Chuva forte prevista", true
	case intensity >= 25:
		return AlertModerateRain, SeverityWarning, "🌦️ Chuva moderada prevista", true
	case intensity >= 10:
		return AlertLightRain, SeverityInfo, "🌦️ Chuva fraca prevista", true
	case intensity >= 1:
		return AlertDrizzle, SeverityInfo, "🌦️ Garoa prevista", true
	}
	if precipitation == 0 && probability >= 70 && isRainProviderCode(providerCode) {
		return AlertRainExpected, SeverityInfo, "☔ Possibilidade de chuva", true
	}
	return "", "", "", false
}

func windRule(windSpeedKmh float64) (string, AlertSeverity, string, bool) {
	switch {
	case windSpeedKmh >= 60:
		return AlertStrongWindDay, SeverityAlert, "💨 Ventos muito fortes", true
	case windSpeedKmh >= 40:
		return AlertStrongWindDay, SeverityWarning, "💨 Ventos fortes", true
	}
	return "", "", "", false
}

func visibilityRule(visibilityM int) (string, AlertSeverity, string, bool) {
	switch {
	case visibilityM < 500:
		return AlertLowVisibility, SeverityAlert, "🌫️ Visibilidade muito reduzida", true
	case visibilityM < 1000:
		return AlertLowVisibility, SeverityWarning, "🌫️ Visibilidade reduzida", true
	}
	return "", "", "", false
}

func temperatureRule(temperatureC float64) (string, AlertSeverity, string, bool) {
	switch {
	case temperatureC < 5:
		return AlertExtremeCold, SeverityWarning, "🥶 Frio intenso", true
	case temperatureC > 35:
		return AlertExtremeHot, SeverityWarning, "🥵 Calor intenso", true
	}
	return "", "", "", false
}

// rainEndsAt scans forward from the alert timestamp through the hourly list
// and reports when the rain ends: the hour after the last wet hour, once two
// consecutive hours score an intensity below 1. The boolean is false when no
// end can be established within the horizon.
func rainEndsAt(hourly []HourlyForecast, from time.Time) (time.Time, bool) {
	lastWet := time.Time{}
	dryRun := 0
	for _, h := range hourly {
		ts := normalizeTimestamp(h.Timestamp)
		if ts.Before(from) {
			continue
		}
		if h.RainfallIntensity < 1 {
			dryRun++
			if dryRun >= 2 && !lastWet.IsZero() {
				return lastWet.Add(time.Hour), true
			}
		} else {
			dryRun = 0
			lastWet = ts
		}
	}
	return time.Time{}, false
}

// temperatureTrendAlerts compares each day's max against the next three days
// and keeps the single largest drop and the single largest rise at or above
// the threshold.
func temperatureTrendAlerts(trend *trendAccumulator) []WeatherAlert {
	days := trend.sortedDays()

	var bestDrop, bestRise *WeatherAlert
	for i := range days {
		for j := i + 1; j < len(days) && j <= i+tempTrendWindowDays; j++ {
			delta := days[j].max - days[i].max
			if math.Abs(delta) < tempTrendThresholdC {
				continue
			}
			daysBetween := int(days[j].day.Sub(days[i].day).Hours() / 24)
			candidate := WeatherAlert{
				Timestamp: days[i].day,
				Details: map[string]any{
					"day_1_date":   days[i].day.Format("2006-01-02"),
					"day_1_max_c":  Round(days[i].max, 1),
					"day_2_date":   days[j].day.Format("2006-01-02"),
					"day_2_max_c":  Round(days[j].max, 1),
					"variation_c":  Round(delta, 1),
					"days_between": daysBetween,
				},
			}
			if delta < 0 {
				candidate.Code = AlertTempDrop
				candidate.Severity = SeverityInfo
				candidate.Description = fmt.Sprintf("📉 Queda de %.1f°C em %d dia(s)", math.Abs(delta), daysBetween)
				if bestDrop == nil || math.Abs(delta) > math.Abs(bestDrop.Details["variation_c"].(float64)) {
					bestDrop = &candidate
				}
			} else {
				candidate.Code = AlertTempRise
				candidate.Severity = SeverityWarning
				candidate.Description = fmt.Sprintf("📈 Aumento de %.1f°C em %d dia(s)", delta, daysBetween)
				if bestRise == nil || delta > bestRise.Details["variation_c"].(float64) {
					bestRise = &candidate
				}
			}
		}
	}

	alerts := make([]WeatherAlert, 0, 2)
	if bestDrop != nil {
		alerts = append(alerts, *bestDrop)
	}
	if bestRise != nil {
		alerts = append(alerts, *bestRise)
	}
	return alerts
}
