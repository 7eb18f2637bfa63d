package models

import "time"

// TripResult is the oracle's answer for one sequencing request.
type TripResult struct {
	// Geometry is the ordered path polyline returned by the oracle.
	Geometry []Coordinates
	// LegDistances holds per-segment distances in meters, one fewer than
	// the number of submitted waypoints.
	LegDistances []float64
	// Order optionally holds an explicit visiting order (indices into the
	// submitted waypoint list). Oracles that return only geometry leave it
	// nil and callers must reconcile the order from Geometry.
	Order []int
}

// Route is one fully computed, ordered sequence of waypoints plus its path
// geometry. A Route is immutable once produced: recomputation replaces it
// wholesale, it is never mutated in place.
type Route struct {
	ID         string        `json:"id"`          // ID uniquely identifies one pipeline run.
	Waypoints  []Waypoint    `json:"waypoints"`   // Waypoints in final visiting order.
	Geometry   []Coordinates `json:"geometry"`    // Geometry is the path polyline from the oracle.
	ComputedAt time.Time     `json:"computed_at"` // ComputedAt is when the pipeline produced this route.
}
