package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/mateusmanuel/roteirizador/internal/models"
)

// Recognized row keys. Anything else in a row is ignored.
const (
	KeyStopID       = "id"
	KeySequence     = "sequence"
	KeyLat          = "lat"
	KeyLng          = "lng"
	KeyAddress      = "address"
	KeyTrackingCode = "tracking_code"
	KeyPostalCode   = "postal_code"
)

// Row is one loosely-typed source record, as decoded from a spreadsheet
// export or a JSON payload. Values may be numbers, numeric strings or
// plain strings depending on how the file was produced.
type Row map[string]any

// Normalize converts raw rows into typed waypoints, preserving input order.
//
// A row is dropped silently when any of the four required fields (id,
// sequence, lat, lng) is missing, zero or empty - zero is historically
// treated as absent. Rows whose required fields are present but not
// numeric, or not finite, are dropped the same way: a waypoint is never
// partially constructed. Optional string fields normalize to "" when the
// source value is missing or falsy.
func Normalize(rows []Row) []models.Waypoint {
	waypoints := make([]models.Waypoint, 0, len(rows))

	for _, row := range rows {
		stopID, ok := intField(row, KeyStopID)
		if !ok || stopID == 0 {
			continue
		}
		sequence, ok := intField(row, KeySequence)
		if !ok || sequence == 0 {
			continue
		}
		lat, ok := floatField(row, KeyLat)
		if !ok || lat == 0 {
			continue
		}
		lng, ok := floatField(row, KeyLng)
		if !ok || lng == 0 {
			continue
		}

		waypoints = append(waypoints, models.Waypoint{
			StopID:       stopID,
			Sequence:     sequence,
			Lat:          lat,
			Lng:          lng,
			Address:      stringField(row, KeyAddress),
			TrackingCode: stringField(row, KeyTrackingCode),
			PostalCode:   stringField(row, KeyPostalCode),
		})
	}

	return waypoints
}

// floatField coerces a row value to a finite float64. The ok result is
// false when the value is missing, non-numeric or not finite.
func floatField(row Row, key string) (float64, bool) {
	value, exists := row[key]
	if !exists || value == nil {
		return 0, false
	}

	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// intField coerces a row value to an int via floatField, truncating any
// fractional part the way spreadsheet exports produce "1.0" for 1.
func intField(row Row, key string) (int, bool) {
	f, ok := floatField(row, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// stringField returns the trimmed string form of an optional field, or ""
// when the value is missing or not textual.
func stringField(row Row, key string) string {
	value, exists := row[key]
	if !exists || value == nil {
		return ""
	}

	s, ok := value.(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(s)
}
