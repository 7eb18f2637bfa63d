package api

import (
	"log/slog"
	"net/http"

	"github.com/mateusmanuel/roteirizador/internal/service"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay unaware of
// concrete oracle and store adapters.
func NewRouter(log *slog.Logger, planner *service.PlannerService) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &RouteHandler{Log: log, Planner: planner}
	deliveryHandler := &DeliveryHandler{Log: log, Planner: planner}

	mux.HandleFunc("/routes", routeHandler.Create)
	mux.HandleFunc("/routes/current", routeHandler.Current)
	mux.HandleFunc("/deliveries/toggle", deliveryHandler.Toggle)
	mux.HandleFunc("/deliveries/next", deliveryHandler.Next)

	return loggingMiddleware(log, mux)
}
