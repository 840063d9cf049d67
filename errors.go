package main

import (
	"fmt"
	"net/http"
)

// This file defines the request-error taxonomy shared by the use cases and
// the handler layer. A requestError carries the typed kind that appears in
// the error body, the HTTP status it maps to and optional details.

type requestError struct {
	Kind    string
	Status  int
	Message string
	Details map[string]any
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errCityNotFound(cityID string) *requestError {
	return &requestError{
		Kind:    "CityNotFound",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("city %q is not in the municipality table", cityID),
		Details: map[string]any{"cityId": cityID},
	}
}

func errCoordinatesNotFound(cityID string) *requestError {
	return &requestError{
		Kind:    "CoordinatesNotFound",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("city %q has no surveyed coordinates", cityID),
		Details: map[string]any{"cityId": cityID},
	}
}

func errInvalidRadius(raw string) *requestError {
	return &requestError{
		Kind:    "InvalidRadius",
		Status:  http.StatusBadRequest,
		Message: "radius must be a positive number of kilometers",
		Details: map[string]any{"radius": raw},
	}
}

func errInvalidDateTime(raw string) *requestError {
	return &requestError{
		Kind:    "InvalidDateTime",
		Status:  http.StatusBadRequest,
		Message: "date must be YYYY-MM-DD and time must be HH:MM",
		Details: map[string]any{"value": raw},
	}
}

func errWeatherDataNotFound(cityID string) *requestError {
	return &requestError{
		Kind:    "WeatherDataNotFound",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("no forecast data available for city %q", cityID),
		Details: map[string]any{"cityId": cityID},
	}
}

func errUpstreamFault(provider string, cause error) *requestError {
	return &requestError{
		Kind:    "GeoProviderError",
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("provider %s failed", provider),
		Details: map[string]any{"provider": provider, "cause": cause.Error()},
	}
}

func errInvalidBody(msg string) *requestError {
	return &requestError{
		Kind:    "InvalidRequestBody",
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}
