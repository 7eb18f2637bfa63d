package planner

import (
	"fmt"
	"sort"

	"github.com/mateusmanuel/roteirizador/internal/models"
)

// Reconcile recovers a total visiting order over waypoints from an oracle
// geometry that carries no indices.
//
// Each waypoint is assigned the position of its first matching geometry
// coordinate and the list is sorted ascending by that position. The sort is
// stable: waypoints resolving to the same geometry position, including the
// PositionNotFound sentinel, keep their pre-sort relative order. O(W*G),
// fine at the tens-to-low-hundreds scale this runs at.
func Reconcile(waypoints []models.Waypoint, geometry []models.Coordinates, matcher Matcher) []models.Waypoint {
	type located struct {
		waypoint models.Waypoint
		position int
	}

	locations := make([]located, 0, len(waypoints))
	for _, wp := range waypoints {
		locations = append(locations, located{
			waypoint: wp,
			position: matcher.Match(wp.Coordinates(), geometry),
		})
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].position < locations[j].position
	})

	ordered := make([]models.Waypoint, 0, len(locations))
	for _, loc := range locations {
		ordered = append(ordered, loc.waypoint)
	}

	return ordered
}

// ApplyOrder reorders waypoints by an explicit oracle-provided permutation
// of indices. Used instead of Reconcile when the oracle reports which
// submitted waypoint each tour position corresponds to.
func ApplyOrder(waypoints []models.Waypoint, order []int) ([]models.Waypoint, error) {
	if len(order) != len(waypoints) {
		return nil, fmt.Errorf("order length %d does not match %d waypoints", len(order), len(waypoints))
	}

	seen := make([]bool, len(waypoints))
	ordered := make([]models.Waypoint, 0, len(waypoints))
	for _, idx := range order {
		if idx < 0 || idx >= len(waypoints) || seen[idx] {
			return nil, fmt.Errorf("order is not a permutation: index %d", idx)
		}
		seen[idx] = true
		ordered = append(ordered, waypoints[idx])
	}

	return ordered, nil
}
