package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/service"
)

type actionFunc func(ctx context.Context, id string) (service.Result, error)

func action(d deps.Deps, fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toResult(res))
	}
}

// Dispense picks a prompt and starts the cooldown.
func Dispense(d deps.Deps) http.HandlerFunc { return action(d, d.Service.Dispense) }

// SkipForward marks a prompt used without copying it.
func SkipForward(d deps.Deps) http.HandlerFunc { return action(d, d.Service.SkipForward) }

// SkipBackward undoes the latest dispense.
func SkipBackward(d deps.Deps) http.HandlerFunc { return action(d, d.Service.SkipBackward) }

// Reset clears the history and the cooldown.
func Reset(d deps.Deps) http.HandlerFunc { return action(d, d.Service.Reset) }

// Cooldown reports the list's cooldown status.
func Cooldown(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Service.Cooldown(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCooldown(st))
	}
}
