package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/api/handlers"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	planner handlers.DayPlanner,
	tracker handlers.EventApplier,
	routes ports.RouteRepository,
	jobs ports.JobRepository,
	planTimeout time.Duration,
	gatherer prometheus.Gatherer,
) http.Handler {
	mux := http.NewServeMux()

	planHandler := &handlers.PlanHandler{Planner: planner, Timeout: planTimeout}
	routeHandler := &handlers.RouteHandler{Routes: routes}
	eventHandler := &handlers.EventHandler{Tracker: tracker}
	jobHandler := &handlers.JobHandler{Repo: jobs}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/api/plan", planHandler.Plan)
	mux.HandleFunc("/api/routes", routeHandler.Get)
	mux.HandleFunc("/api/events", eventHandler.Submit)
	mux.HandleFunc("/api/jobs", jobHandler.List)

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return loggingMiddleware(mux)
}
