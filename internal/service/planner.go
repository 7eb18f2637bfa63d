package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mateusmanuel/roteirizador/internal/ingest"
	"github.com/mateusmanuel/roteirizador/internal/metrics"
	"github.com/mateusmanuel/roteirizador/internal/models"
	"github.com/mateusmanuel/roteirizador/internal/planner"
	"github.com/mateusmanuel/roteirizador/internal/routing"
	"github.com/mateusmanuel/roteirizador/internal/tracker"
)

// ErrNoRoute is returned when no route has been computed yet.
var ErrNoRoute = errors.New("no route has been computed")

// ErrStartOutOfRange is returned when the requested starting index does not
// address a normalized waypoint.
var ErrStartOutOfRange = errors.New("starting index out of range")

// BuildOptions controls the optional pipeline stages of one route
// computation.
type BuildOptions struct {
	// GroupByPostalCode enables the re-clustering pass after reconciliation.
	GroupByPostalCode bool
	// TrueDistances recomputes adjacent-pair distances when grouping has
	// reordered the route, instead of keeping the oracle leg distance at
	// each output position.
	TrueDistances bool
}

// PlannerService runs the waypoint sequencing pipeline and owns the current
// route. One call in, one result out: overlapping BuildRoute calls are not
// debounced, the last successful computation wins. The previously installed
// route survives any failed run untouched.
type PlannerService struct {
	log          *slog.Logger       // Logger for logging service activities
	sequencer    routing.Sequencer  // Sequencing oracle for external route optimization
	providerName string             // Name of the oracle provider for metrics labeling
	matcher      planner.Matcher    // Strategy recovering waypoint order from oracle geometry
	tracker      *tracker.Tracker   // Delivery state over the current route
	metrics      *metrics.Metrics   // Metrics for tracking service performance

	mu      sync.RWMutex
	current *models.Route
}

// NewPlannerService creates a new instance of PlannerService. It takes a
// logger, a sequencing oracle, the provider name for metrics, an order
// matcher, the delivery tracker and metrics. It returns a pointer to the
// newly created PlannerService.
func NewPlannerService(
	log *slog.Logger,
	sequencer routing.Sequencer,
	providerName string,
	matcher planner.Matcher,
	deliveryTracker *tracker.Tracker,
	appMetrics *metrics.Metrics,
) *PlannerService {
	return &PlannerService{
		log:          log,
		sequencer:    sequencer,
		providerName: providerName,
		matcher:      matcher,
		tracker:      deliveryTracker,
		metrics:      appMetrics,
	}
}

// BuildRoute runs the full pipeline over raw source rows: normalization,
// sequencing via the oracle, order reconciliation, the optional grouping
// pass and distance annotation. On success the new route replaces the
// current one wholesale and all delivery state resets to pending. On oracle
// failure the error is returned and the prior route is left unchanged.
func (ps *PlannerService) BuildRoute(
	ctx context.Context,
	rows []ingest.Row,
	start int,
	opts BuildOptions,
) (*models.Route, error) {
	waypoints := ingest.Normalize(rows)
	ps.log.InfoContext(ctx, "Normalized source rows", "rows", len(rows), "waypoints", len(waypoints))

	// Fewer than two stops leave nothing to sequence: no oracle call, the
	// normalized input becomes the route as-is with empty geometry.
	if len(waypoints) < 2 {
		route := ps.install(ctx, waypoints, nil)
		ps.metrics.RoutesComputed.WithLabelValues("success").Inc()
		return route, nil
	}

	if start < 0 || start >= len(waypoints) {
		ps.metrics.RoutesComputed.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %d with %d waypoints", ErrStartOutOfRange, start, len(waypoints))
	}

	// Rotate so the chosen start is first; the oracle pins the first
	// coordinate of a non-round-trip tour.
	rotated := make([]models.Waypoint, 0, len(waypoints))
	rotated = append(rotated, waypoints[start:]...)
	rotated = append(rotated, waypoints[:start]...)

	coords := make([]models.Coordinates, 0, len(rotated))
	for _, wp := range rotated {
		coords = append(coords, wp.Coordinates())
	}

	startTime := time.Now()
	trip, err := ps.sequencer.Trip(ctx, coords)
	ps.metrics.RequestSeconds.WithLabelValues(ps.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		ps.log.ErrorContext(ctx, "Sequencing oracle call failed", "error", err)
		ps.metrics.OracleErrors.Inc()
		ps.metrics.RoutesComputed.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to sequence waypoints: %w", err)
	}

	var reconciled []models.Waypoint
	if trip.Order != nil {
		reconciled, err = planner.ApplyOrder(rotated, trip.Order)
		if err != nil {
			ps.metrics.RoutesComputed.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("failed to apply oracle order: %w", err)
		}
	} else {
		reconciled = planner.Reconcile(rotated, trip.Geometry, ps.matcher)
	}

	final := reconciled
	if opts.GroupByPostalCode {
		final = planner.GroupByPostalCode(reconciled)
	}

	if opts.TrueDistances && !sameOrder(final, reconciled) {
		final = planner.RecomputeDistances(final)
	} else {
		final = planner.AnnotateDistances(final, trip.LegDistances)
	}

	route := ps.install(ctx, final, trip.Geometry)
	ps.metrics.RoutesComputed.WithLabelValues("success").Inc()
	ps.log.InfoContext(ctx, "Computed route", "route", route.ID, "stops", len(route.Waypoints))

	return route, nil
}

// CurrentRoute returns the installed route, or ErrNoRoute when the pipeline
// has not produced one yet.
func (ps *PlannerService) CurrentRoute() (*models.Route, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.current == nil {
		return nil, ErrNoRoute
	}
	return ps.current, nil
}

// ToggleDelivery flips the delivered state of the route position and keeps
// the delivered gauge in sync. It returns the new delivered state.
func (ps *PlannerService) ToggleDelivery(ctx context.Context, position int) (bool, error) {
	state, err := ps.tracker.Toggle(ctx, position)
	if err != nil {
		return false, err
	}

	ps.metrics.DeliveredStops.Set(float64(ps.tracker.DeliveredCount()))
	return state, nil
}

// NextPending returns the lowest route position still pending, or
// tracker.NoPending when everything is delivered.
func (ps *PlannerService) NextPending() int {
	return ps.tracker.NextPending()
}

// Delivered reports the delivered flag for a route position.
func (ps *PlannerService) Delivered(position int) bool {
	return ps.tracker.Delivered(position)
}

// install replaces the current route and resets delivery state. A reset
// failure is logged, not fatal: the route itself is already computed and
// the in-memory state is consistent.
func (ps *PlannerService) install(ctx context.Context, waypoints []models.Waypoint, geometry []models.Coordinates) *models.Route {
	route := &models.Route{
		ID:         uuid.NewString(),
		Waypoints:  waypoints,
		Geometry:   geometry,
		ComputedAt: time.Now().UTC(),
	}

	ps.mu.Lock()
	ps.current = route
	ps.mu.Unlock()

	if err := ps.tracker.Reset(ctx, len(waypoints)); err != nil {
		ps.log.ErrorContext(ctx, "Failed to reset delivery state", "route", route.ID, "error", err)
	}
	ps.metrics.RouteStops.Set(float64(len(waypoints)))
	ps.metrics.DeliveredStops.Set(0)

	return route
}

// sameOrder reports whether two waypoint slices visit the same stops in the
// same order, ignoring annotations.
func sameOrder(a, b []models.Waypoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].StopID != b[i].StopID || a[i].Sequence != b[i].Sequence {
			return false
		}
	}
	return true
}
