package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mateusmanuel/roteirizador/internal/ingest"
	"github.com/mateusmanuel/roteirizador/internal/models"
	"github.com/mateusmanuel/roteirizador/internal/service"
	"github.com/mateusmanuel/roteirizador/internal/tracker"
)

// RouteHandler serves route computation and retrieval.
type RouteHandler struct {
	Log     *slog.Logger
	Planner *service.PlannerService
}

// DeliveryHandler serves delivered-state toggles and queries.
type DeliveryHandler struct {
	Log     *slog.Logger
	Planner *service.PlannerService
}

// createRouteRequest is the JSON body of POST /routes.
type createRouteRequest struct {
	Rows          []ingest.Row `json:"rows"`
	Start         int          `json:"start"`
	Group         bool         `json:"group"`
	TrueDistances bool         `json:"true_distances"`
}

// routeResponse pairs the route with per-position delivered flags.
type routeResponse struct {
	Route     *models.Route `json:"route"`
	Delivered []bool        `json:"delivered"`
}

// Create computes a new route from raw rows. The body is either JSON (rows,
// start index and flags) or a text/csv spreadsheet export with start and
// flags passed as query parameters. On oracle failure the previous route
// stays installed and a 502 is returned.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createRouteRequest
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "text/csv"):
		rows, err := ingest.ReadCSV(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid csv body: "+err.Error())
			return
		}
		req.Rows = rows
		req.Start, _ = strconv.Atoi(r.URL.Query().Get("start"))
		req.Group = r.URL.Query().Get("group") == "true"
		req.TrueDistances = r.URL.Query().Get("true_distances") == "true"
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
			return
		}
	}

	route, err := h.Planner.BuildRoute(r.Context(), req.Rows, req.Start, service.BuildOptions{
		GroupByPostalCode: req.Group,
		TrueDistances:     req.TrueDistances,
	})
	if err != nil {
		if errors.Is(err, service.ErrStartOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Oracle failure: the previously computed route, if any, is left
		// untouched; the caller only sees the failure.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, routeResponse{
		Route:     route,
		Delivered: h.deliveredFlags(route),
	})
}

// Current returns the installed route with delivered flags.
func (h *RouteHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	route, err := h.Planner.CurrentRoute()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, routeResponse{
		Route:     route,
		Delivered: h.deliveredFlags(route),
	})
}

func (h *RouteHandler) deliveredFlags(route *models.Route) []bool {
	flags := make([]bool, len(route.Waypoints))
	for i := range flags {
		flags[i] = h.Planner.Delivered(i)
	}
	return flags
}

// toggleRequest is the JSON body of POST /deliveries/toggle.
type toggleRequest struct {
	Position int `json:"position"`
}

// Toggle flips the delivered state of one route position.
func (h *DeliveryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}

	delivered, err := h.Planner.ToggleDelivery(r.Context(), req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"position":  req.Position,
		"delivered": delivered,
	})
}

// Next returns the lowest pending position, or 404 when all positions are
// delivered.
func (h *DeliveryHandler) Next(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	next := h.Planner.NextPending()
	if next == tracker.NoPending {
		writeError(w, http.StatusNotFound, "all positions delivered")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"position": next})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
