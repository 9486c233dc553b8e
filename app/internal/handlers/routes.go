package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemon/app/internal/ratelimit"
	"telemon/app/internal/station"
)

// SetupRoutes wires all HTTP routes.
func SetupRoutes(st *station.Station, limiter *ratelimit.Limiter, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/update", HandleUpdate(st, limiter))
	mux.HandleFunc("/api/current", HandleCurrent(st))
	mux.HandleFunc("/api/history", HandleHistory(st))
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", HandleHome())
	return mux
}
