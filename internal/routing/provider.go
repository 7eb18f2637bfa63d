package routing

import (
	"context"
	"net/http"

	"github.com/mateusmanuel/roteirizador/internal/models"
)

// Sequencer is the route-optimization oracle consumed by the pipeline.
// The Trip method submits an ordered coordinate list for a one-way tour
// with the first point fixed, and returns the oracle's path geometry and
// per-leg distances. The oracle is a black box: no implementation here
// computes routes itself.
type Sequencer interface {
	Trip(ctx context.Context, coords []models.Coordinates) (*models.TripResult, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
