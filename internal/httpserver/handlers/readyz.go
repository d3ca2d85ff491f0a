package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once the store answers and the list index holds its first
// snapshot.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStore(r.Context(), d); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "store unavailable"})
			return
		}
		if d.Index != nil && d.Index.LastUpdate().IsZero() {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "lists not loaded"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	if d.Backend == nil {
		return errNoBackend
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.Backend.Ping(ctx)
}
