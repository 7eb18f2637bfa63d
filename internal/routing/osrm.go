package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mateusmanuel/roteirizador/internal/models"
	"golang.org/x/time/rate"
)

// OSRMBaseURL -- public OSRM demo server base URL.
const OSRMBaseURL = "https://router.project-osrm.org"

// OSRMProvider implements the Sequencer interface using the OSRM trip API.
// It submits all coordinates as one request for a non-round-trip tour with
// the first point fixed, and returns the trip geometry and leg distances
// exactly as the service reports them.
type OSRMProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the OSRM API
	profile string        // Routing profile (driving, cycling, ...)
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter, the demo server has a fair-use policy
}

// Common errors for the OSRM provider.
var (
	ErrOSRMBadCode       = errors.New("osrm API returned a non-Ok code")
	ErrOSRMTooFewCoords  = errors.New("osrm trip requires at least two coordinates")
	ErrOSRMLegMismatch   = errors.New("osrm trip returned unexpected leg count")
	ErrOSRMBadCoordinate = errors.New("osrm trip returned a malformed coordinate pair")
)

// osrmTripResponse represents the JSON response from the OSRM trip API,
// reduced to the fields the pipeline consumes.
type osrmTripResponse struct {
	Code  string `json:"code"`
	Trips []struct {
		Geometry struct {
			// Coordinates are GeoJSON-ordered [lng, lat] pairs.
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Distance float64 `json:"distance"` // meters
		} `json:"legs"`
	} `json:"trips"`
}

// NewOSRMProvider creates an OSRM sequencing provider against the public
// demo server with the driving profile.
func NewOSRMProvider(rateLimit int, log *slog.Logger) *OSRMProvider {
	const timeout = 10
	return &OSRMProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: OSRMBaseURL,
		profile: "driving",
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewOSRMProviderWithClient creates an OSRM provider with a custom HTTP
// client and base URL. Useful for testing and for self-hosted OSRM.
func NewOSRMProviderWithClient(client HTTPClient, baseURL string, limiter *rate.Limiter, log *slog.Logger) *OSRMProvider {
	return &OSRMProvider{
		client:  client,
		baseURL: baseURL,
		profile: "driving",
		log:     log,
		limiter: limiter,
	}
}

// Trip requests a fixed-start, one-way tour over the given coordinates.
//
// The response carries only the path geometry and leg distances, never the
// visiting order, so TripResult.Order is always nil: callers reconcile the
// order from the geometry. An Ok response without a trip yields empty
// geometry and legs, not an error. Transport failures, non-2xx statuses and
// malformed bodies are returned as errors without retry; surfacing them is
// the caller's responsibility.
func (op *OSRMProvider) Trip(ctx context.Context, coords []models.Coordinates) (*models.TripResult, error) {
	if len(coords) < 2 {
		return nil, ErrOSRMTooFewCoords
	}

	if op.limiter != nil {
		if err := op.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	reqURL, err := op.tripURL(coords)
	if err != nil {
		return nil, err
	}

	op.log.DebugContext(ctx, "OSRM trip request", "url", reqURL, "stops", len(coords))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute trip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		op.log.ErrorContext(ctx, "OSRM API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("osrm API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed osrmTripResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		op.log.ErrorContext(ctx, "Failed to parse OSRM response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode osrm response: %w", err)
	}

	if parsed.Code != "Ok" {
		return nil, fmt.Errorf("%w: %s", ErrOSRMBadCode, parsed.Code)
	}

	// No trip in an Ok response means nothing to order: empty result.
	if len(parsed.Trips) == 0 {
		return &models.TripResult{}, nil
	}
	trip := parsed.Trips[0]

	if len(trip.Legs) != 0 && len(trip.Legs) != len(coords)-1 {
		return nil, fmt.Errorf("%w: got %d legs for %d stops", ErrOSRMLegMismatch, len(trip.Legs), len(coords))
	}

	geometry := make([]models.Coordinates, 0, len(trip.Geometry.Coordinates))
	for _, pair := range trip.Geometry.Coordinates {
		if len(pair) < 2 {
			return nil, ErrOSRMBadCoordinate
		}
		geometry = append(geometry, models.Coordinates{Lat: pair[1], Lng: pair[0]})
	}

	legs := make([]float64, 0, len(trip.Legs))
	for _, leg := range trip.Legs {
		legs = append(legs, leg.Distance)
	}

	op.log.DebugContext(ctx, "OSRM trip parsed", "geometry_points", len(geometry), "legs", len(legs))

	return &models.TripResult{Geometry: geometry, LegDistances: legs}, nil
}

// tripURL builds the trip request URL. OSRM expects semicolon-separated
// lng,lat pairs in the path.
func (op *OSRMProvider) tripURL(coords []models.Coordinates) (string, error) {
	pairs := make([]string, 0, len(coords))
	for _, c := range coords {
		pairs = append(pairs,
			strconv.FormatFloat(c.Lng, 'f', -1, 64)+","+strconv.FormatFloat(c.Lat, 'f', -1, 64))
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/trip/v1/%s/%s", op.baseURL, op.profile, strings.Join(pairs, ";")))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("source", "first")
	query.Set("roundtrip", "false")
	query.Set("geometries", "geojson")
	query.Set("overview", "full")
	reqURL.RawQuery = query.Encode()

	return reqURL.String(), nil
}
