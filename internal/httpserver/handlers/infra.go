package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

var errNoBackend = errors.New("store not initialized")

type componentStatus struct {
	OK           bool   `json:"ok"`
	Mode         string `json:"mode,omitempty"`
	ListsLoaded  *int   `json:"lists_loaded,omitempty"`
	PromptsTotal *int   `json:"prompts_total,omitempty"`
	PromptsUsed  *int   `json:"prompts_used,omitempty"`
	Exhausted    *int   `json:"lists_exhausted,omitempty"`
	LastUpdate   string `json:"last_update,omitempty"`
	Source       string `json:"source,omitempty"`
	Error        string `json:"error,omitempty"`
}

type infraResponse struct {
	Status       string                     `json:"status"`
	DelaySeconds int                        `json:"delay_seconds"`
	Components   map[string]componentStatus `json:"components"`
}

// Infra reports the state of every component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store": storeStatus(r, d),
			"index": indexStatus(d),
			"seed":  seedStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:       overallStatus(components),
			DelaySeconds: d.Service.DelaySeconds(r.Context()),
			Components:   components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	if !components["index"].OK {
		return "degraded"
	}
	return "ok"
}

func storeStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{Mode: d.StoreKind, Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: d.StoreKind}
}

func indexStatus(d deps.Deps) componentStatus {
	if d.Index == nil {
		return componentStatus{Error: "index not initialized"}
	}

	count := d.Index.Count()
	total, used := d.Index.PromptCounts()
	exhausted := d.Index.Exhausted()
	last := d.Index.LastUpdate()
	lastStr := "never"
	if !last.IsZero() {
		lastStr = last.Format("2006-01-02 15:04:05")
	}

	return componentStatus{
		OK:           !last.IsZero(),
		ListsLoaded:  &count,
		PromptsTotal: &total,
		PromptsUsed:  &used,
		Exhausted:    &exhausted,
		LastUpdate:   lastStr,
	}
}

func seedStatus(d deps.Deps) componentStatus {
	if d.SeedFile == "" {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "file", Source: d.SeedFile}
}
