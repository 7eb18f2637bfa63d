package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mateusmanuel/roteirizador/internal/ingest"
	"github.com/mateusmanuel/roteirizador/internal/metrics"
	"github.com/mateusmanuel/roteirizador/internal/models"
	"github.com/mateusmanuel/roteirizador/internal/planner"
	"github.com/mateusmanuel/roteirizador/internal/service"
	"github.com/mateusmanuel/roteirizador/internal/store"
	"github.com/mateusmanuel/roteirizador/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSequencer records every coordinate slice it receives and always
// answers with the configured trip or error.
type stubSequencer struct {
	trip  *models.TripResult
	err   error
	calls [][]models.Coordinates
}

func (s *stubSequencer) Trip(_ context.Context, coords []models.Coordinates) (*models.TripResult, error) {
	s.calls = append(s.calls, coords)
	if s.err != nil {
		return nil, s.err
	}
	return s.trip, nil
}

func newTestService(t *testing.T, seq *stubSequencer) (*service.PlannerService, *metrics.Metrics) {
	t.Helper()

	logger := slog.Default()
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	deliveryTracker := tracker.New(logger, store.NewMemoryStore(), "")

	svc := service.NewPlannerService(
		logger,
		seq,
		"stub",
		planner.NewEpsilonMatcher(),
		deliveryTracker,
		appMetrics,
	)
	return svc, appMetrics
}

func row(id, sequence int, lat, lng float64, postalCode string) ingest.Row {
	r := ingest.Row{
		ingest.KeyStopID:   id,
		ingest.KeySequence: sequence,
		ingest.KeyLat:      lat,
		ingest.KeyLng:      lng,
	}
	if postalCode != "" {
		r[ingest.KeyPostalCode] = postalCode
	}
	return r
}

func stopIDs(waypoints []models.Waypoint) []int {
	ids := make([]int, 0, len(waypoints))
	for _, wp := range waypoints {
		ids = append(ids, wp.StopID)
	}
	return ids
}

func TestPlannerService_BuildRoute(t *testing.T) {
	ctx := t.Context()

	rows := []ingest.Row{
		row(1, 1, 10, 20, ""),
		row(2, 2, 10.1, 20.1, ""),
		row(3, 3, 10.2, 20.2, ""),
	}

	t.Run("reorders waypoints along the returned geometry", func(t *testing.T) {
		seq := &stubSequencer{trip: &models.TripResult{
			Geometry: []models.Coordinates{
				{Lat: 10, Lng: 20},
				{Lat: 10.2, Lng: 20.2},
				{Lat: 10.1, Lng: 20.1},
			},
			LegDistances: []float64{500, 300},
		}}
		svc, appMetrics := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 2}, stopIDs(route.Waypoints))
		assert.NotEmpty(t, route.ID)
		assert.Len(t, route.Geometry, 3)

		require.Nil(t, route.Waypoints[0].DistanceM)
		require.NotNil(t, route.Waypoints[1].DistanceM)
		assert.InDelta(t, 500, *route.Waypoints[1].DistanceM, 0.001)
		require.NotNil(t, route.Waypoints[2].DistanceM)
		assert.InDelta(t, 300, *route.Waypoints[2].DistanceM, 0.001)

		assert.Equal(t, float64(1), testutil.ToFloat64(appMetrics.RoutesComputed.WithLabelValues("success")))
		assert.Equal(t, float64(3), testutil.ToFloat64(appMetrics.RouteStops))
	})

	t.Run("applies an explicit oracle order when present", func(t *testing.T) {
		seq := &stubSequencer{trip: &models.TripResult{
			Order:        []int{0, 2, 1},
			LegDistances: []float64{700, 200},
		}}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 2}, stopIDs(route.Waypoints))
		require.NotNil(t, route.Waypoints[1].DistanceM)
		assert.InDelta(t, 700, *route.Waypoints[1].DistanceM, 0.001)
	})

	t.Run("rejects an oracle order that is not a permutation", func(t *testing.T) {
		seq := &stubSequencer{trip: &models.TripResult{Order: []int{0, 0, 1}}}
		svc, _ := newTestService(t, seq)

		_, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to apply oracle order")
	})

	t.Run("rotates the tour so the chosen start is first", func(t *testing.T) {
		seq := &stubSequencer{trip: &models.TripResult{
			Geometry: []models.Coordinates{
				{Lat: 10.1, Lng: 20.1},
				{Lat: 10.2, Lng: 20.2},
				{Lat: 10, Lng: 20},
			},
			LegDistances: []float64{100, 100},
		}}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows, 1, service.BuildOptions{})

		require.NoError(t, err)
		require.Len(t, seq.calls, 1)
		assert.Equal(t, []models.Coordinates{
			{Lat: 10.1, Lng: 20.1},
			{Lat: 10.2, Lng: 20.2},
			{Lat: 10, Lng: 20},
		}, seq.calls[0])
		assert.Equal(t, []int{2, 3, 1}, stopIDs(route.Waypoints))
	})

	t.Run("start index out of range fails without an oracle call", func(t *testing.T) {
		seq := &stubSequencer{}
		svc, appMetrics := newTestService(t, seq)

		_, err := svc.BuildRoute(ctx, rows, 3, service.BuildOptions{})

		require.ErrorIs(t, err, service.ErrStartOutOfRange)
		assert.Empty(t, seq.calls)
		assert.Equal(t, float64(1), testutil.ToFloat64(appMetrics.RoutesComputed.WithLabelValues("failure")))
	})

	t.Run("fewer than two waypoints skip the oracle entirely", func(t *testing.T) {
		seq := &stubSequencer{}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows[:1], 0, service.BuildOptions{})

		require.NoError(t, err)
		assert.Empty(t, seq.calls)
		assert.Equal(t, []int{1}, stopIDs(route.Waypoints))
		assert.Empty(t, route.Geometry)
	})

	t.Run("oracle failure keeps the prior route", func(t *testing.T) {
		seq := &stubSequencer{trip: &models.TripResult{
			Geometry: []models.Coordinates{
				{Lat: 10, Lng: 20},
				{Lat: 10.1, Lng: 20.1},
				{Lat: 10.2, Lng: 20.2},
			},
			LegDistances: []float64{100, 100},
		}}
		svc, appMetrics := newTestService(t, seq)

		first, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})
		require.NoError(t, err)

		seq.err = assert.AnError
		_, err = svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to sequence waypoints")

		current, err := svc.CurrentRoute()
		require.NoError(t, err)
		assert.Equal(t, first.ID, current.ID)
		assert.Equal(t, float64(1), testutil.ToFloat64(appMetrics.OracleErrors))
	})
}

func TestPlannerService_Grouping(t *testing.T) {
	ctx := t.Context()

	rows := []ingest.Row{
		row(1, 1, 10, 20, "11111"),
		row(2, 2, 11, 20, "22222"),
		row(3, 3, 12, 20, "11111"),
	}
	identityTrip := &models.TripResult{
		Geometry: []models.Coordinates{
			{Lat: 10, Lng: 20},
			{Lat: 11, Lng: 20},
			{Lat: 12, Lng: 20},
		},
		LegDistances: []float64{111000, 111000},
	}

	t.Run("pulls same-postal-code stops together", func(t *testing.T) {
		seq := &stubSequencer{trip: identityTrip}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{GroupByPostalCode: true})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 2}, stopIDs(route.Waypoints))

		// Leg distances stay positional by default, even though grouping
		// changed which pair each leg sits between.
		require.NotNil(t, route.Waypoints[1].DistanceM)
		assert.InDelta(t, 111000, *route.Waypoints[1].DistanceM, 0.001)
	})

	t.Run("recomputes distances after grouping when asked", func(t *testing.T) {
		seq := &stubSequencer{trip: identityTrip}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{
			GroupByPostalCode: true,
			TrueDistances:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 2}, stopIDs(route.Waypoints))

		// One degree of latitude is roughly 111.2 km along a meridian.
		require.NotNil(t, route.Waypoints[1].DistanceM)
		assert.InDelta(t, 222390, *route.Waypoints[1].DistanceM, 500)
		require.NotNil(t, route.Waypoints[2].DistanceM)
		assert.InDelta(t, 111195, *route.Waypoints[2].DistanceM, 300)
	})

	t.Run("keeps oracle distances when grouping changes nothing", func(t *testing.T) {
		contiguous := []ingest.Row{
			row(1, 1, 10, 20, "11111"),
			row(2, 2, 11, 20, "11111"),
			row(3, 3, 12, 20, "22222"),
		}
		seq := &stubSequencer{trip: identityTrip}
		svc, _ := newTestService(t, seq)

		route, err := svc.BuildRoute(ctx, contiguous, 0, service.BuildOptions{
			GroupByPostalCode: true,
			TrueDistances:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, stopIDs(route.Waypoints))
		require.NotNil(t, route.Waypoints[1].DistanceM)
		assert.InDelta(t, 111000, *route.Waypoints[1].DistanceM, 0.001)
	})
}

func TestPlannerService_Deliveries(t *testing.T) {
	ctx := t.Context()

	seq := &stubSequencer{trip: &models.TripResult{
		Geometry: []models.Coordinates{
			{Lat: 10, Lng: 20},
			{Lat: 10.1, Lng: 20.1},
			{Lat: 10.2, Lng: 20.2},
		},
		LegDistances: []float64{100, 100},
	}}
	svc, appMetrics := newTestService(t, seq)

	rows := []ingest.Row{
		row(1, 1, 10, 20, ""),
		row(2, 2, 10.1, 20.1, ""),
		row(3, 3, 10.2, 20.2, ""),
	}
	_, err := svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})
	require.NoError(t, err)

	t.Run("a fresh route starts fully pending", func(t *testing.T) {
		assert.Equal(t, 0, svc.NextPending())
		assert.False(t, svc.Delivered(0))
	})

	t.Run("toggle flips state and the gauge follows", func(t *testing.T) {
		delivered, err := svc.ToggleDelivery(ctx, 0)
		require.NoError(t, err)
		assert.True(t, delivered)
		assert.True(t, svc.Delivered(0))
		assert.Equal(t, 1, svc.NextPending())
		assert.Equal(t, float64(1), testutil.ToFloat64(appMetrics.DeliveredStops))

		delivered, err = svc.ToggleDelivery(ctx, 0)
		require.NoError(t, err)
		assert.False(t, delivered)
		assert.Equal(t, float64(0), testutil.ToFloat64(appMetrics.DeliveredStops))
	})

	t.Run("toggle rejects positions outside the route", func(t *testing.T) {
		_, err := svc.ToggleDelivery(ctx, 7)
		require.ErrorIs(t, err, tracker.ErrPositionOutOfRange)
	})

	t.Run("recomputing the route resets delivery state", func(t *testing.T) {
		_, err := svc.ToggleDelivery(ctx, 1)
		require.NoError(t, err)

		_, err = svc.BuildRoute(ctx, rows, 0, service.BuildOptions{})
		require.NoError(t, err)

		assert.Equal(t, 0, svc.NextPending())
		assert.False(t, svc.Delivered(1))
	})
}

func TestPlannerService_CurrentRoute(t *testing.T) {
	svc, _ := newTestService(t, &stubSequencer{})

	_, err := svc.CurrentRoute()
	require.ErrorIs(t, err, service.ErrNoRoute)
}
