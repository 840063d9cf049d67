package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// This file contains the HTTP handlers. Routing uses the method+pattern
// ServeMux syntax; path parameters come out of r.PathValue.

// defaultNeighborRadiusKm applies when the radius query parameter is absent.
const defaultNeighborRadiusKm = 50.0

// maxRegionalCities caps one regional request.
const maxRegionalCities = 500

// handlerNeighbors serves GET /api/cities/neighbors/{cityID}.
func (cfg *apiConfig) handlerNeighbors(w http.ResponseWriter, r *http.Request) {
	cityID := r.PathValue("cityID")

	radius := defaultNeighborRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			cfg.respondWithRequestError(w, errInvalidRadius(raw))
			return
		}
		radius = parsed
	}

	center, neighbors, err := cfg.cities.Neighbors(cityID, radius)
	if err != nil {
		cfg.respondWithRequestError(w, err)
		return
	}

	response := NeighborsResponse{
		CenterCity: CityJSON{ID: center.ID, Name: center.Name, State: center.State, Region: center.Region},
		Neighbors:  make([]NeighborJSON, 0, len(neighbors)),
	}
	for _, n := range neighbors {
		response.Neighbors = append(response.Neighbors, NeighborJSON{
			ID:       n.City.ID,
			Name:     n.City.Name,
			Distance: n.DistanceKm,
		})
	}
	cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerCityWeather serves GET /api/weather/city/{cityID}. The optional
// date/time query pair shifts the reference instant.
func (cfg *apiConfig) handlerCityWeather(w http.ResponseWriter, r *http.Request) {
	cityID := r.PathValue("cityID")

	target, err := parseTargetDateTime(r.URL.Query().Get("date"), r.URL.Query().Get("time"))
	if err != nil {
		cfg.respondWithRequestError(w, err)
		return
	}

	weather, err := cfg.CityWeather(r.Context(), cityID, target)
	if err != nil {
		cfg.respondWithRequestError(w, err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, weatherToJSON(weather))
}

// handlerDetailedForecast serves GET /api/weather/city/{cityID}/detailed.
func (cfg *apiConfig) handlerDetailedForecast(w http.ResponseWriter, r *http.Request) {
	cityID := r.PathValue("cityID")

	forecast, err := cfg.DetailedForecast(r.Context(), cityID)
	if err != nil {
		cfg.respondWithRequestError(w, err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, extendedForecastToJSON(forecast))
}

// handlerRegionalWeather serves POST /api/weather/regional. Failing cities
// are dropped from the result, never an error for the aggregate.
func (cfg *apiConfig) handlerRegionalWeather(w http.ResponseWriter, r *http.Request) {
	var request RegionalRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&request); err != nil {
		cfg.respondWithRequestError(w, errInvalidBody("body must be JSON with a cityIds array"))
		return
	}
	if len(request.CityIDs) == 0 {
		cfg.respondWithRequestError(w, errInvalidBody("cityIds must contain at least one city id"))
		return
	}
	if len(request.CityIDs) > maxRegionalCities {
		cfg.respondWithRequestError(w, errInvalidBody("cityIds exceeds the per-request limit"))
		return
	}

	weathers := cfg.RegionalWeather(r.Context(), request.CityIDs, time.Time{})

	response := make([]WeatherJSON, 0, len(weathers))
	for _, weather := range weathers {
		response = append(response, weatherToJSON(weather))
	}
	cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerConfig exposes the runtime toggles the frontend cares about.
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{DevMode: cfg.devMode}
	if cfg.devMode {
		response.HourlyInterval = cfg.hourlyInterval.String()
		response.DailyInterval = cfg.dailyInterval.String()
	}
	cfg.respondWithJSON(w, http.StatusOK, response)
}

// handlerReadiness is a plain liveness probe.
func (cfg *apiConfig) handlerReadiness(w http.ResponseWriter, r *http.Request) {
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlerFlushCache empties the cache. Dev mode only.
func (cfg *apiConfig) handlerFlushCache(w http.ResponseWriter, r *http.Request) {
	if err := cfg.cache.Flush(r.Context()); err != nil {
		cfg.logger.Error("cache flush failed", "error", err)
		cfg.respondWithJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}
	cfg.logger.Info("cache flushed")
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// handlerWarmCache runs one warm cycle over the configured city list without
// waiting for the next tick. Dev mode only.
func (cfg *apiConfig) handlerWarmCache(w http.ResponseWriter, r *http.Request) {
	if len(cfg.warmCityIDs) == 0 {
		cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "no warm cities configured"})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		cfg.RegionalWeather(ctx, cfg.warmCityIDs, time.Time{})
	}()
	cfg.respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "warm cycle triggered"})
}

// parseTargetDateTime combines the optional date (YYYY-MM-DD) and time
// (HH:MM) query parameters into a São Paulo instant. Both empty yields the
// zero time, which downstream reads as "now". A time without a date applies
// to today.
func parseTargetDateTime(dateStr, timeStr string) (time.Time, error) {
	if dateStr == "" && timeStr == "" {
		return time.Time{}, nil
	}

	day := startOfDay(time.Now().In(saoPaulo))
	if dateStr != "" {
		parsed, err := parseForecastDate(dateStr)
		if err != nil {
			return time.Time{}, errInvalidDateTime(dateStr)
		}
		day = parsed
	}
	if timeStr == "" {
		return day, nil
	}

	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, errInvalidDateTime(timeStr)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, saoPaulo), nil
}
