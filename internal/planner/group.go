package planner

import "github.com/mateusmanuel/roteirizador/internal/models"

// GroupByPostalCode re-clusters waypoints sharing a postal code so they
// appear contiguously, preserving the reconciled order of each group's
// first member.
//
// One forward scan: a waypoint without a postal code is emitted alone; a
// waypoint with one pulls every later waypoint sharing that exact code next
// to it, in their original relative order. Every input waypoint appears
// exactly once in the output. An empty postal code is treated as absent,
// never as a group key.
func GroupByPostalCode(ordered []models.Waypoint) []models.Waypoint {
	grouped := make([]models.Waypoint, 0, len(ordered))
	visited := make([]bool, len(ordered))

	for i, wp := range ordered {
		if visited[i] {
			continue
		}
		visited[i] = true
		grouped = append(grouped, wp)

		if wp.PostalCode == "" {
			continue
		}

		for j := i + 1; j < len(ordered); j++ {
			if visited[j] || ordered[j].PostalCode != wp.PostalCode {
				continue
			}
			visited[j] = true
			grouped = append(grouped, ordered[j])
		}
	}

	return grouped
}
