package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/service"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

// maxBodyBytes caps request bodies; prompt lists are plain text.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

type listResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AllPrompts  []string  `json:"allPrompts"`
	UsedPrompts []string  `json:"usedPrompts"`
	CreatedAt   time.Time `json:"createdAt"`
	Remaining   int       `json:"remaining"`
	Summary     string    `json:"summary"`
}

type cooldownResponse struct {
	Active      bool       `json:"active"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	RemainingMs int64      `json:"remainingMs"`
	Label       string     `json:"label,omitempty"`
}

type viewResponse struct {
	listResponse
	Status          string           `json:"status"`
	Cooldown        cooldownResponse `json:"cooldown"`
	CanDispense     bool             `json:"canDispense"`
	CanSkipForward  bool             `json:"canSkipForward"`
	CanSkipBackward bool             `json:"canSkipBackward"`
}

type resultResponse struct {
	Action string       `json:"action"`
	Prompt string       `json:"prompt,omitempty"`
	Copied bool         `json:"copied"`
	List   viewResponse `json:"list"`
}

type groupResponse struct {
	Day   string         `json:"day"`
	Label string         `json:"label"`
	Lists []listResponse `json:"lists"`
}

func toList(l domain.PromptList) listResponse {
	return listResponse{
		ID:          l.ID,
		Name:        l.Name,
		AllPrompts:  l.AllPrompts,
		UsedPrompts: l.UsedPrompts,
		CreatedAt:   l.CreatedAt,
		Remaining:   l.Remaining(),
		Summary:     l.Summary(),
	}
}

func toLists(lists []domain.PromptList) []listResponse {
	out := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, toList(l))
	}
	return out
}

func toGroups(groups []domain.DayGroup) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{
			Day:   g.Day.Format(time.DateOnly),
			Label: g.Label(),
			Lists: toLists(g.Lists),
		})
	}
	return out
}

func toCooldown(st domain.CooldownStatus) cooldownResponse {
	if !st.Active {
		return cooldownResponse{}
	}
	end := st.EndsAt
	return cooldownResponse{
		Active:      true,
		EndsAt:      &end,
		RemainingMs: st.Remaining.Milliseconds(),
		Label:       domain.FormatCountdown(st.Remaining),
	}
}

func toView(v service.View) viewResponse {
	lr := toList(v.List)
	lr.Remaining = v.Remaining
	return viewResponse{
		listResponse:    lr,
		Status:          v.Status,
		Cooldown:        toCooldown(v.Cooldown),
		CanDispense:     v.CanDispense,
		CanSkipForward:  v.CanSkipForward,
		CanSkipBackward: v.CanSkipBackward,
	}
}

func toResult(res service.Result) resultResponse {
	return resultResponse{
		Action: string(res.Action),
		Prompt: res.Prompt,
		Copied: res.Copied,
		List:   toView(res.View),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// writeError maps service errors to statuses. Expected refusals are not
// logged here; the service already recorded them.
func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		cooling    *service.CoolingDownError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Reason, Code: "validation", Field: validation.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "List not found", Code: "not_found"})
	case domain.IsExhausted(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "exhausted"})
	case domain.IsNoHistory(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "no_history"})
	case errors.As(err, &cooling):
		secs := max(int(math.Ceil(cooling.Remaining.Seconds())), 1)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error(), Code: "cooling_down"})
	default:
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}
