package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// This file contains helper functions for sending standardized JSON responses.

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	Type    string         `json:"type"`
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondWithJSON marshals a payload, sets the content-type header, writes
// the HTTP status code and sends the response.
func (cfg *apiConfig) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		cfg.logger.Error("error marshalling JSON", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		cfg.logger.Error("error writing response", "error", err)
	}
}

// respondWithRequestError maps an error to the typed error body. Unexpected
// errors become an opaque 500 so upstream bodies and stack traces never leak.
func (cfg *apiConfig) respondWithRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		if reqErr.Status >= http.StatusInternalServerError {
			cfg.logger.Error("request failed", "type", reqErr.Kind, "error", err)
		} else {
			cfg.logger.Debug("request rejected", "type", reqErr.Kind, "error", err)
		}
		cfg.respondWithJSON(w, reqErr.Status, ErrorResponse{
			Type:    reqErr.Kind,
			Error:   reqErr.Kind,
			Message: reqErr.Message,
			Details: reqErr.Details,
		})
		return
	}

	cfg.logger.Error("unexpected error", "error", err)
	cfg.respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
		Type:    "InternalError",
		Error:   "InternalError",
		Message: "an unexpected error occurred",
	})
}
