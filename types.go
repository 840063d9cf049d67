package main

import (
	"math"
	"time"
)

// City is an immutable municipality record from the IBGE snapshot.
// Latitude/Longitude are pointers because a handful of municipalities in the
// snapshot have no surveyed coordinates.
type City struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinates returns the city's coordinates and whether they are known.
func (c City) Coordinates() (Coordinates, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}, true
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

const earthRadiusKm = 6371.0

// DistanceKm computes the haversine distance to another point.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - c.Latitude) * math.Pi / 180
	dLon := (other.Longitude - c.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Weather holds the current conditions for one city at one point in time.
// It is a plain aggregate: alerts and metrics are attached by the use case,
// the code/description pair comes from the condition classifier.
type Weather struct {
	CityID             string
	CityName           string
	Timestamp          time.Time
	Temperature        float64
	FeelsLike          float64
	TempMin            float64
	TempMax            float64
	Humidity           int
	Pressure           int
	Visibility         int
	Clouds             int
	WindSpeed          float64
	WindDirection      int
	RainProbability    int
	Rain1h             float64
	RainAccumulatedDay float64
	RainfallIntensity  int
	CloudsDescription  string
	WeatherCode        int
	Description        string
	Alerts             []WeatherAlert
	DailyMetrics       *DailyAggregatedMetrics
}

// HourlyForecast is one sample of the 0-168h horizon. Optional upstream
// fields are pointers; ProviderCode carries the raw upstream weather code for
// the alert rules and never reaches the wire.
type HourlyForecast struct {
	Timestamp                time.Time
	Temperature              float64
	ApparentTemperature      *float64
	Precipitation            float64
	PrecipitationProbability int
	RainfallIntensity        int
	Humidity                 int
	WindSpeed                float64
	WindDirection            int
	CloudCover               int
	Pressure                 *int
	Visibility               *int
	UVIndex                  *float64
	IsDay                    *bool
	WeatherCode              int
	Description              string
	ProviderCode             int
}

// classify finalizes the proprietary code and description from the sample's
// own metrics. Mappers must call this before returning the entity.
func (h *HourlyForecast) classify() {
	visibility := defaultVisibilityM
	if h.Visibility != nil {
		visibility = *h.Visibility
	}
	h.WeatherCode, h.Description = classifyCondition(
		h.RainfallIntensity,
		h.Precipitation,
		h.WindSpeed,
		h.CloudCover,
		visibility,
		h.Temperature,
		h.PrecipitationProbability,
	)
}

// DailyForecast is one entry of the 0-16d horizon. Date is the start of the
// local day in America/Sao_Paulo.
type DailyForecast struct {
	Date               time.Time
	TempMin            float64
	TempMax            float64
	ApparentTempMin    *float64
	ApparentTempMax    *float64
	PrecipitationMM    float64
	RainProbability    int
	RainfallIntensity  int
	WindSpeedMax       float64
	WindDirection      int
	UVIndex            float64
	Sunrise            string
	Sunset             string
	PrecipitationHours float64
	Clouds             *int
	Visibility         *int
	WeatherCode        int
	Description        string
	ProviderCode       int
}

func (d *DailyForecast) classify() {
	visibility := defaultVisibilityM
	if d.Visibility != nil {
		visibility = *d.Visibility
	}
	clouds := 0
	if d.Clouds != nil {
		clouds = *d.Clouds
	}
	// Approximate the per-hour volume by spreading the daily total over the
	// reported wet hours, so the daily entry lands in the same bands as an
	// hourly sample would.
	perHour := d.PrecipitationMM
	if d.PrecipitationHours > 1 {
		perHour = d.PrecipitationMM / d.PrecipitationHours
	}
	d.WeatherCode, d.Description = classifyCondition(
		d.RainfallIntensity,
		perHour,
		d.WindSpeedMax,
		clouds,
		visibility,
		(d.TempMin+d.TempMax)/2,
		d.RainProbability,
	)
}

// DaylightHours derives the day length from the HH:MM sunrise/sunset pair.
// Returns 0 when either is missing or malformed.
func (d DailyForecast) DaylightHours() float64 {
	rise, err1 := time.Parse("15:04", d.Sunrise)
	set, err2 := time.Parse("15:04", d.Sunset)
	if err1 != nil || err2 != nil || !set.After(rise) {
		return 0
	}
	return Round(set.Sub(rise).Hours(), 2)
}

func (d DailyForecast) UVRiskLevel() string {
	return uvRiskLevel(d.UVIndex)
}

func (d DailyForecast) WindDirectionArrow() string {
	return windDirectionArrow(d.WindDirection)
}

type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "INFO"
	SeverityWarning AlertSeverity = "WARNING"
	SeverityAlert   AlertSeverity = "ALERT"
	SeverityDanger  AlertSeverity = "DANGER"
)

// severityRank orders severities for the stable output sort.
func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityDanger:
		return 3
	case SeverityAlert:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// WeatherAlert is one derived alert. Code comes from the closed vocabulary in
// alerts.go; Details carries code-specific fields such as rain_ends_at.
type WeatherAlert struct {
	Code        string
	Severity    AlertSeverity
	Description string
	Timestamp   time.Time
	Details     map[string]any
}

// DailyAggregatedMetrics summarizes the target day from hourly and daily data
// together.
type DailyAggregatedMetrics struct {
	Date               time.Time
	RainVolume         float64
	RainIntensityMax   int
	RainProbabilityMax int
	WindSpeedMax       float64
	TempMin            float64
	TempMax            float64
}

// ExtendedForecast is the detailed single-city view: current conditions plus
// the full daily and hourly horizons. ExtendedAvailable is false when the
// daily fetch failed but current conditions succeeded.
type ExtendedForecast struct {
	CityID            string
	CityName          string
	CityState         string
	CurrentWeather    Weather
	DailyForecasts    []DailyForecast
	HourlyForecasts   []HourlyForecast
	ExtendedAvailable bool
}

// --- Wire DTOs (camelCase per the API contract) ---

const wireTimeLayout = "2006-01-02T15:04:05-07:00"

type WeatherAlertJSON struct {
	Code        string         `json:"code"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Timestamp   string         `json:"timestamp"`
	Details     map[string]any `json:"details,omitempty"`
}

type DailyMetricsJSON struct {
	Date               string  `json:"date"`
	RainVolume         float64 `json:"rainVolume"`
	RainIntensityMax   int     `json:"rainIntensityMax"`
	RainProbabilityMax int     `json:"rainProbabilityMax"`
	WindSpeedMax       float64 `json:"windSpeedMax"`
	TempMin            float64 `json:"tempMin"`
	TempMax            float64 `json:"tempMax"`
}

type WeatherJSON struct {
	CityID             string             `json:"cityId"`
	CityName           string             `json:"cityName"`
	Timestamp          string             `json:"timestamp"`
	Temperature        float64            `json:"temperature"`
	FeelsLike          float64            `json:"feelsLike"`
	TempMin            float64            `json:"tempMin"`
	TempMax            float64            `json:"tempMax"`
	Humidity           int                `json:"humidity"`
	Pressure           int                `json:"pressure"`
	Visibility         int                `json:"visibility"`
	Clouds             int                `json:"clouds"`
	CloudsDescription  string             `json:"cloudsDescription"`
	WindSpeed          float64            `json:"windSpeed"`
	WindDirection      int                `json:"windDirection"`
	RainProbability    int                `json:"rainProbability"`
	Rain1h             float64            `json:"rain1h"`
	RainAccumulatedDay float64            `json:"rainAccumulatedDay"`
	RainfallIntensity  int                `json:"rainfallIntensity"`
	WeatherCode        int                `json:"weatherCode"`
	Description        string             `json:"description"`
	WeatherAlert       []WeatherAlertJSON `json:"weatherAlert"`
	DailyMetrics       *DailyMetricsJSON  `json:"dailyMetrics,omitempty"`
}

type HourlyForecastJSON struct {
	Timestamp                string   `json:"timestamp"`
	Temperature              float64  `json:"temperature"`
	ApparentTemperature      *float64 `json:"apparentTemperature,omitempty"`
	Precipitation            float64  `json:"precipitation"`
	PrecipitationProbability int      `json:"precipitationProbability"`
	RainfallIntensity        int      `json:"rainfallIntensity"`
	Humidity                 int      `json:"humidity"`
	WindSpeed                float64  `json:"windSpeed"`
	WindDirection            int      `json:"windDirection"`
	CloudCover               int      `json:"cloudCover"`
	Pressure                 *int     `json:"pressure,omitempty"`
	Visibility               *int     `json:"visibility,omitempty"`
	UVIndex                  *float64 `json:"uvIndex,omitempty"`
	IsDay                    *bool    `json:"isDay,omitempty"`
	WeatherCode              int      `json:"weatherCode"`
	Description              string   `json:"description"`
}

type DailyForecastJSON struct {
	Date               string   `json:"date"`
	TempMin            float64  `json:"tempMin"`
	TempMax            float64  `json:"tempMax"`
	ApparentTempMin    *float64 `json:"apparentTempMin,omitempty"`
	ApparentTempMax    *float64 `json:"apparentTempMax,omitempty"`
	PrecipitationMM    float64  `json:"precipitationMm"`
	RainProbability    int      `json:"rainProbability"`
	RainfallIntensity  int      `json:"rainfallIntensity"`
	WindSpeedMax       float64  `json:"windSpeedMax"`
	WindDirection      int      `json:"windDirection"`
	WindDirectionArrow string   `json:"windDirectionArrow"`
	UVIndex            float64  `json:"uvIndex"`
	UVRiskLevel        string   `json:"uvRiskLevel"`
	Sunrise            string   `json:"sunrise"`
	Sunset             string   `json:"sunset"`
	DaylightHours      float64  `json:"daylightHours"`
	PrecipitationHours float64  `json:"precipitationHours"`
	Clouds             *int     `json:"clouds,omitempty"`
	Visibility         *int     `json:"visibility,omitempty"`
	WeatherCode        int      `json:"weatherCode"`
	Description        string   `json:"description"`
}

type ExtendedForecastJSON struct {
	CityID            string               `json:"cityId"`
	CityName          string               `json:"cityName"`
	CityState         string               `json:"cityState"`
	CurrentWeather    WeatherJSON          `json:"currentWeather"`
	DailyForecasts    []DailyForecastJSON  `json:"dailyForecasts"`
	HourlyForecasts   []HourlyForecastJSON `json:"hourlyForecasts"`
	ExtendedAvailable bool                 `json:"extendedAvailable"`
}

type NeighborJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

type NeighborsResponse struct {
	CenterCity CityJSON       `json:"centerCity"`
	Neighbors  []NeighborJSON `json:"neighbors"`
}

type CityJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	State  string `json:"state"`
	Region string `json:"region"`
}

type ConfigResponse struct {
	DevMode        bool   `json:"dev_mode"`
	HourlyInterval string `json:"hourly_interval,omitempty"`
	DailyInterval  string `json:"daily_interval,omitempty"`
}

type RegionalRequest struct {
	CityIDs []string `json:"cityIds"`
}

func weatherAlertToJSON(a WeatherAlert) WeatherAlertJSON {
	return WeatherAlertJSON{
		Code:        a.Code,
		Severity:    string(a.Severity),
		Description: a.Description,
		Timestamp:   a.Timestamp.Format(wireTimeLayout),
		Details:     a.Details,
	}
}

func weatherToJSON(w Weather) WeatherJSON {
	alerts := make([]WeatherAlertJSON, 0, len(w.Alerts))
	for _, a := range w.Alerts {
		alerts = append(alerts, weatherAlertToJSON(a))
	}
	out := WeatherJSON{
		CityID:             w.CityID,
		CityName:           w.CityName,
		Timestamp:          w.Timestamp.Format(wireTimeLayout),
		Temperature:        w.Temperature,
		FeelsLike:          w.FeelsLike,
		TempMin:            w.TempMin,
		TempMax:            w.TempMax,
		Humidity:           w.Humidity,
		Pressure:           w.Pressure,
		Visibility:         w.Visibility,
		Clouds:             w.Clouds,
		CloudsDescription:  w.CloudsDescription,
		WindSpeed:          w.WindSpeed,
		WindDirection:      w.WindDirection,
		RainProbability:    w.RainProbability,
		Rain1h:             w.Rain1h,
		RainAccumulatedDay: w.RainAccumulatedDay,
		RainfallIntensity:  w.RainfallIntensity,
		WeatherCode:        w.WeatherCode,
		Description:        w.Description,
		WeatherAlert:       alerts,
	}
	if w.DailyMetrics != nil {
		out.DailyMetrics = &DailyMetricsJSON{
			Date:               w.DailyMetrics.Date.Format("2006-01-02"),
			RainVolume:         w.DailyMetrics.RainVolume,
			RainIntensityMax:   w.DailyMetrics.RainIntensityMax,
			RainProbabilityMax: w.DailyMetrics.RainProbabilityMax,
			WindSpeedMax:       w.DailyMetrics.WindSpeedMax,
			TempMin:            w.DailyMetrics.TempMin,
			TempMax:            w.DailyMetrics.TempMax,
		}
	}
	return out
}

func hourlyForecastToJSON(h HourlyForecast) HourlyForecastJSON {
	return HourlyForecastJSON{
		Timestamp:                h.Timestamp.Format(wireTimeLayout),
		Temperature:              h.Temperature,
		ApparentTemperature:      h.ApparentTemperature,
		Precipitation:            h.Precipitation,
		PrecipitationProbability: h.PrecipitationProbability,
		RainfallIntensity:        h.RainfallIntensity,
		Humidity:                 h.Humidity,
		WindSpeed:                h.WindSpeed,
		WindDirection:            h.WindDirection,
		CloudCover:               h.CloudCover,
		Pressure:                 h.Pressure,
		Visibility:               h.Visibility,
		UVIndex:                  h.UVIndex,
		IsDay:                    h.IsDay,
		WeatherCode:              h.WeatherCode,
		Description:              h.Description,
	}
}

func dailyForecastToJSON(d DailyForecast) DailyForecastJSON {
	return DailyForecastJSON{
		Date:               d.Date.Format("2006-01-02"),
		TempMin:            d.TempMin,
		TempMax:            d.TempMax,
		ApparentTempMin:    d.ApparentTempMin,
		ApparentTempMax:    d.ApparentTempMax,
		PrecipitationMM:    d.PrecipitationMM,
		RainProbability:    d.RainProbability,
		RainfallIntensity:  d.RainfallIntensity,
		WindSpeedMax:       d.WindSpeedMax,
		WindDirection:      d.WindDirection,
		WindDirectionArrow: d.WindDirectionArrow(),
		UVIndex:            d.UVIndex,
		UVRiskLevel:        d.UVRiskLevel(),
		Sunrise:            d.Sunrise,
		Sunset:             d.Sunset,
		DaylightHours:      d.DaylightHours(),
		PrecipitationHours: d.PrecipitationHours,
		Clouds:             d.Clouds,
		Visibility:         d.Visibility,
		WeatherCode:        d.WeatherCode,
		Description:        d.Description,
	}
}

func extendedForecastToJSON(e ExtendedForecast) ExtendedForecastJSON {
	daily := make([]DailyForecastJSON, 0, len(e.DailyForecasts))
	for _, d := range e.DailyForecasts {
		daily = append(daily, dailyForecastToJSON(d))
	}
	hourly := make([]HourlyForecastJSON, 0, len(e.HourlyForecasts))
	for _, h := range e.HourlyForecasts {
		hourly = append(hourly, hourlyForecastToJSON(h))
	}
	return ExtendedForecastJSON{
		CityID:            e.CityID,
		CityName:          e.CityName,
		CityState:         e.CityState,
		CurrentWeather:    weatherToJSON(e.CurrentWeather),
		DailyForecasts:    daily,
		HourlyForecasts:   hourly,
		ExtendedAvailable: e.ExtendedAvailable,
	}
}
