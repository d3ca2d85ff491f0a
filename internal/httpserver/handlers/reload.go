package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload triggers a manual seed import.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeJSON(w, http.StatusNotFound, reloadResponse{Message: "seed import is disabled"})
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "reload triggered"})
		default:
			d.Logger.Warn("seed reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Message: "reload already in progress, please wait"})
		}
	}
}
