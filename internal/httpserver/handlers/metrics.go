package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

// Metrics serves the Prometheus exposition of d.Gatherer.
func Metrics(d deps.Deps) http.Handler {
	g := d.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
