package planner

import (
	"math"

	"github.com/mateusmanuel/roteirizador/internal/models"
)

// PositionNotFound is the sentinel recovered position for a waypoint that
// matched no geometry coordinate. Such waypoints sort to the front of the
// reconciled order: an accepted approximation, not a guaranteed placement.
const PositionNotFound = -1

// DefaultTolerance is the per-axis tolerance for coordinate matching,
// roughly 100m of latitude. Oracle geometries are path rasters, so returned
// points rarely equal the submitted ones exactly.
const DefaultTolerance = 1e-3

// Matcher recovers a waypoint's position along an oracle geometry. It is a
// pluggable strategy: an epsilon match over coordinates is the default, but
// oracles that return explicit indices can bypass matching entirely (see
// ApplyOrder).
type Matcher interface {
	// Match returns the position in geometry of the first coordinate
	// matching c, or PositionNotFound.
	Match(c models.Coordinates, geometry []models.Coordinates) int
}

// EpsilonMatcher matches a coordinate to the first geometry point whose
// latitude and longitude both differ by less than Tolerance. First-match
// semantics make it fragile under near-duplicate coordinates; that fragility
// is the reason Matcher is an interface.
type EpsilonMatcher struct {
	Tolerance float64
}

// NewEpsilonMatcher returns an EpsilonMatcher with the default tolerance.
func NewEpsilonMatcher() EpsilonMatcher {
	return EpsilonMatcher{Tolerance: DefaultTolerance}
}

func (m EpsilonMatcher) Match(c models.Coordinates, geometry []models.Coordinates) int {
	for i, g := range geometry {
		if math.Abs(g.Lat-c.Lat) < m.Tolerance && math.Abs(g.Lng-c.Lng) < m.Tolerance {
			return i
		}
	}
	return PositionNotFound
}
