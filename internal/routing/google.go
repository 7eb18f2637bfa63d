package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mateusmanuel/roteirizador/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider implements the Sequencer interface using the Google Maps
// Directions API with waypoint optimization. Unlike OSRM's trip endpoint,
// Directions returns an explicit waypoint order, so results carry Order and
// downstream code can skip geometry matching entirely.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// Common errors for the Google provider.
var (
	ErrGoogleEmptyResponse = errors.New("got empty response from Google Directions API")
	ErrGoogleTooFewCoords  = errors.New("google directions requires at least two coordinates")
)

// NewGoogleProvider initializes a new GoogleProvider with the given API
// client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Trip requests an optimized one-way visiting order over the coordinates.
//
// The first coordinate is pinned as the origin, the last as the destination,
// and everything in between is submitted as optimizable waypoints. The
// returned Order covers all submitted coordinates (origin first), legs hold
// per-segment distances in meters and Geometry is the decoded overview
// polyline.
func (gp *GoogleProvider) Trip(ctx context.Context, coords []models.Coordinates) (*models.TripResult, error) {
	if len(coords) < 2 {
		return nil, ErrGoogleTooFewCoords
	}

	gp.log.DebugContext(ctx, "Sequencing using Google Directions", "stops", len(coords))

	intermediates := coords[1 : len(coords)-1]
	waypoints := make([]string, 0, len(intermediates))
	for _, c := range intermediates {
		waypoints = append(waypoints, latLngString(c))
	}

	req := maps.DirectionsRequest{
		Origin:      latLngString(coords[0]),
		Destination: latLngString(coords[len(coords)-1]),
		Waypoints:   waypoints,
		Optimize:    true,
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := gp.client.Directions(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to request directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, ErrGoogleEmptyResponse
	}
	route := routes[0]

	// WaypointOrder indexes the intermediates only; rebuild a full order
	// with the pinned origin and destination around it.
	order := make([]int, 0, len(coords))
	order = append(order, 0)
	for _, idx := range route.WaypointOrder {
		order = append(order, idx+1)
	}
	order = append(order, len(coords)-1)

	legs := make([]float64, 0, len(route.Legs))
	for _, leg := range route.Legs {
		legs = append(legs, float64(leg.Distance.Meters))
	}

	decoded, err := maps.DecodePolyline(route.OverviewPolyline.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overview polyline: %w", err)
	}
	geometry := make([]models.Coordinates, 0, len(decoded))
	for _, p := range decoded {
		geometry = append(geometry, models.Coordinates{Lat: p.Lat, Lng: p.Lng})
	}

	return &models.TripResult{Geometry: geometry, LegDistances: legs, Order: order}, nil
}

func latLngString(c models.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
