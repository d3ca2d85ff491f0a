package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/handlers"
)

func init() { Register(registerReload, apiGuards) }

func registerReload(r chi.Router, d deps.Deps) {
	r.Post("/api/reload", handlers.Reload(d))
}
