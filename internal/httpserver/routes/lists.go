package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/handlers"
)

func init() { Register(registerLists) }

func registerLists(r chi.Router, d deps.Deps) {
	r.Route("/api/lists", func(r chi.Router) {
		// Long-lived streams skip the request timeout.
		r.With(guards(d)...).Get("/stream", handlers.ListStream(d))
		r.With(guards(d)...).Get("/{id}/countdown", handlers.CountdownStream(d))

		r.Group(func(r chi.Router) {
			r.Use(apiGuards(d)...)

			r.Get("/", handlers.ListLists(d))
			r.Post("/", handlers.CreateList(d))
			r.Get("/{id}", handlers.GetList(d))
			r.Put("/{id}", handlers.UpdateList(d))
			r.Delete("/{id}", handlers.DeleteList(d))

			r.Post("/{id}/dispense", handlers.Dispense(d))
			r.Post("/{id}/skip-forward", handlers.SkipForward(d))
			r.Post("/{id}/skip-backward", handlers.SkipBackward(d))
			r.Post("/{id}/reset", handlers.Reset(d))
			r.Get("/{id}/cooldown", handlers.Cooldown(d))
		})
	})
}
