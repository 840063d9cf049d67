package main

import "math"

// This file holds the pure classification functions of the domain: the
// rainfall intensity score, the proprietary condition taxonomy and the small
// presentation enums (cloud bands, UV risk, compass arrows). Everything here
// is deterministic and side-effect free.

// Domain defaults substituted at the mapper boundary when an upstream field
// is absent.
const (
	defaultVisibilityM   = 10000
	defaultPressureHPa   = 1013
	defaultWindDirection = 0
)

// heavyRainAnchorMM is the per-hour volume treated as the "heavy rain"
// reference point of the intensity scale.
const heavyRainAnchorMM = 30.0

// rainfallIntensity collapses probability (%) and volume (mm/h) into a single
// 0-100 score. Zero volume always scores zero regardless of probability.
func rainfallIntensity(probabilityPct, volumeMMPerHour float64) int {
	if volumeMMPerHour <= 0 {
		return 0
	}
	score := (volumeMMPerHour * probabilityPct / 100) / heavyRainAnchorMM * 100
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

// Proprietary condition codes. The code space is banded: clear/cloud 100-399,
// drizzle 400-499, rain 500-599, storm 600-699, fog 700-799, haze 800-899,
// snow 900-999.
const (
	CodeClearSky     = 100
	CodePartlyCloudy = 200
	CodeCloudy       = 300
	CodeOvercast     = 390
	CodeDrizzle      = 400
	CodeLightRain    = 500
	CodeModerateRain = 520
	CodeHeavyRain    = 540
	CodeStorm        = 600
	CodeSevereStorm  = 630
	CodeFog          = 700
	CodeHaze         = 800
	CodeSnow         = 900
)

// classifyCondition maps derived metrics to the proprietary code and its
// PT-BR description. The cascade is a strict priority ladder: the first
// matching rule wins.
func classifyCondition(intensity int, precipitationMMPerHour, windSpeedKmh float64, cloudsPct, visibilityM int, temperatureC float64, rainProbabilityPct int) (int, string) {
	switch {
	case intensity >= 40 && windSpeedKmh >= 30:
		if intensity >= 70 || windSpeedKmh >= 60 {
			return CodeSevereStorm, "Tempestade severa"
		}
		return CodeStorm, "Tempestade"
	case intensity >= 25:
		if intensity >= 60 || precipitationMMPerHour >= 10 {
			return CodeHeavyRain, "Chuva forte"
		}
		if intensity >= 40 || precipitationMMPerHour >= 4 {
			return CodeModerateRain, "Chuva moderada"
		}
		return CodeLightRain, "Chuva fraca"
	case precipitationMMPerHour > 0 || (rainProbabilityPct >= 60 && intensity > 0):
		return CodeDrizzle, "Garoa"
	case visibilityM < 3000:
		return CodeFog, "Nevoeiro"
	case temperatureC < 2 && precipitationMMPerHour > 0:
		return CodeSnow, "Neve"
	case visibilityM < 5000 && precipitationMMPerHour == 0:
		return CodeHaze, "Névoa seca"
	case cloudsPct >= 85:
		return CodeOvercast, "Encoberto"
	case cloudsPct >= 50:
		return CodeCloudy, "Nublado"
	case cloudsPct >= 20:
		return CodePartlyCloudy, "Parcialmente nublado"
	default:
		return CodeClearSky, "Céu limpo"
	}
}

// cloudsDescription maps a cloud-cover percentage into the five presentation
// bands used on the current-conditions payload.
func cloudsDescription(cloudsPct int) string {
	switch {
	case cloudsPct < 10:
		return "Céu limpo"
	case cloudsPct < 25:
		return "Poucas nuvens"
	case cloudsPct < 50:
		return "Parcialmente nublado"
	case cloudsPct < 85:
		return "Nublado"
	default:
		return "Encoberto"
	}
}

// uvRiskLevel maps a UV index to the standard five-band risk scale.
func uvRiskLevel(uvIndex float64) string {
	switch {
	case uvIndex < 3:
		return "Baixo"
	case uvIndex < 6:
		return "Moderado"
	case uvIndex < 8:
		return "Alto"
	case uvIndex < 11:
		return "Muito alto"
	default:
		return "Extremo"
	}
}

var compassArrows = [8]string{"↓", "↙", "←", "↖", "↑", "↗", "→", "↘"}

// windDirectionArrow renders the direction the wind blows towards, given the
// meteorological direction it comes from (0-360, 0 = north).
func windDirectionArrow(directionDeg int) string {
	normalized := ((directionDeg % 360) + 360) % 360
	sector := ((normalized + 22) / 45) % 8
	return compassArrows[sector]
}

// Round rounds a float to the given number of decimal places.
func Round(val float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(val*p) / p
}
