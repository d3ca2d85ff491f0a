package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler

	// Chain builds a registrar's middlewares once the deps are known.
	Chain func(d deps.Deps) []Middleware
)

type entry struct {
	reg    Registrar
	chains []Chain
}

var registry []entry

// Register a registrar with optional middleware chains applied to all of its routes.
func Register(reg Registrar, chains ...Chain) {
	registry = append(registry, entry{reg: reg, chains: chains})
}

// RegisterAll is called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		var mws []Middleware
		for _, c := range e.chains {
			mws = append(mws, c(d)...)
		}
		if len(mws) == 0 {
			e.reg(r, d)
			continue
		}
		e.reg(r.With(mws...), d)
	}
}
