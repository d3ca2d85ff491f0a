package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	allowed := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
	r.With(allowed).Get("/readyz", handlers.Readyz(d))
	r.With(allowed).Method("GET", "/metrics", handlers.Metrics(d))
	r.With(allowed, mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/infra", handlers.Infra(d))
}
