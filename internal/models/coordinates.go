package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Lat float64 `json:"lat"` // Lat is the latitude of the geographical point.
	Lng float64 `json:"lng"` // Lng is the longitude of the geographical point.
}
