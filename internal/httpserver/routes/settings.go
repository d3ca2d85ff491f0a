package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/handlers"
)

func init() { Register(registerSettings, apiGuards) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Get("/api/settings", handlers.GetSettings(d))
	r.Put("/api/settings", handlers.PutSettings(d))
}
