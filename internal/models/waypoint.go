package models

// Waypoint represents one normalized delivery stop. A Waypoint is only ever
// constructed from a source row carrying a non-empty stop id, sequence number
// and finite coordinates; rows failing that never reach this type.
type Waypoint struct {
	StopID       int      `json:"stop_id"`                 // StopID is the external stop identifier, not unique across duplicate entries.
	Sequence     int      `json:"sequence"`                // Sequence is the original ordering hint from the source data.
	Lat          float64  `json:"lat"`                     // Lat is the stop latitude.
	Lng          float64  `json:"lng"`                     // Lng is the stop longitude.
	Address      string   `json:"address"`                 // Address is a free-text destination label, may be empty.
	TrackingCode string   `json:"tracking_code,omitempty"` // TrackingCode is an optional parcel identifier, "" when absent.
	PostalCode   string   `json:"postal_code,omitempty"`   // PostalCode is the optional grouping code, "" when absent.
	DistanceM    *float64 `json:"distance_m,omitempty"`    // DistanceM is meters from the prior stop in the final order, nil for the first stop.
}

// Coordinates returns the geographical point of the waypoint.
func (w Waypoint) Coordinates() Coordinates {
	return Coordinates{Lat: w.Lat, Lng: w.Lng}
}
