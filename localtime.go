package main

import (
	"fmt"
	"time"
)

// All wire timestamps and daily dates are anchored to America/Sao_Paulo.
// Naive timestamps coming from upstreams or callers are assumed to be in
// this zone.

var saoPaulo = loadSaoPaulo()

func loadSaoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		// tzdata missing from the runtime image; BRT has no DST since 2019.
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

// forecastTimeLayouts lists the accepted hourly timestamp shapes: Open-Meteo
// emits naive local "YYYY-MM-DDTHH:MM", other paths carry a full offset.
var forecastTimeLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseForecastTime parses an hourly timestamp, assuming America/Sao_Paulo
// when the value carries no offset.
func parseForecastTime(s string) (time.Time, error) {
	for _, layout := range forecastTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, saoPaulo); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized forecast timestamp %q", s)
}

// parseForecastDate materializes a YYYY-MM-DD string to the start of that day
// in America/Sao_Paulo.
func parseForecastDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, saoPaulo)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized forecast date %q", s)
	}
	return t, nil
}

// startOfDay truncates t to the beginning of its São Paulo calendar day.
func startOfDay(t time.Time) time.Time {
	local := t.In(saoPaulo)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, saoPaulo)
}

// normalizeTimestamp expresses any timestamp in São Paulo time.
func normalizeTimestamp(t time.Time) time.Time {
	return t.In(saoPaulo)
}
