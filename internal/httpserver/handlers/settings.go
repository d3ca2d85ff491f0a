package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

type settingsRequest struct {
	DelaySeconds *int `json:"delaySeconds"`
}

type settingsResponse struct {
	DelaySeconds int `json:"delaySeconds"`
}

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settingsResponse{DelaySeconds: d.Service.DelaySeconds(r.Context())})
	}
}

// PutSettings stores delaySeconds; negative values are stored as 0.
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		if req.DelaySeconds == nil {
			writeError(w, d, r, &domain.ValidationError{Field: "delaySeconds", Reason: "delaySeconds is required"})
			return
		}

		stored, err := d.Service.SetDelaySeconds(r.Context(), *req.DelaySeconds)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsResponse{DelaySeconds: stored})
	}
}
