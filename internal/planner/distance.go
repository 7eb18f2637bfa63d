package planner

import (
	"github.com/mateusmanuel/roteirizador/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// AnnotateDistances assigns each non-first waypoint the oracle leg distance
// at its output position. The first waypoint never receives a distance.
//
// Legs are indexed against the pre-grouping reconciled order but applied
// against the final order, so after a reordering grouping pass the value at
// a position is the leg distance at that position, not necessarily the true
// distance between the adjacent pair. That positional semantic is kept on
// purpose for compatibility with the source behavior; callers wanting true
// adjacent-pair distances use RecomputeDistances instead.
func AnnotateDistances(ordered []models.Waypoint, legs []float64) []models.Waypoint {
	annotated := make([]models.Waypoint, len(ordered))
	copy(annotated, ordered)
	if len(annotated) > 0 {
		annotated[0].DistanceM = nil
	}

	for i := 1; i < len(annotated); i++ {
		if i-1 >= len(legs) {
			break
		}
		d := legs[i-1]
		annotated[i].DistanceM = &d
	}

	return annotated
}

// RecomputeDistances assigns each non-first waypoint the haversine distance
// in meters from its predecessor in the final order. This is the explicit
// fix for the positional mismatch AnnotateDistances carries: straight-line
// rather than road distance, but always between the actually adjacent pair.
func RecomputeDistances(ordered []models.Waypoint) []models.Waypoint {
	annotated := make([]models.Waypoint, len(ordered))
	copy(annotated, ordered)
	if len(annotated) > 0 {
		annotated[0].DistanceM = nil
	}

	for i := 1; i < len(annotated); i++ {
		prev := orb.Point{annotated[i-1].Lng, annotated[i-1].Lat}
		curr := orb.Point{annotated[i].Lng, annotated[i].Lat}
		d := geo.DistanceHaversine(prev, curr)
		annotated[i].DistanceM = &d
	}

	return annotated
}
