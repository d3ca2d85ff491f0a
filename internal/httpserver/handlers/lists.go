package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
)

// listRequest carries prompts as an array, as blank-line separated text, or
// both; text prompts follow array prompts.
type listRequest struct {
	Name    string   `json:"name"`
	Prompts []string `json:"prompts"`
	Text    string   `json:"text"`
}

func (req listRequest) prompts() []string {
	return append(append([]string{}, req.Prompts...), domain.ParsePrompts(req.Text)...)
}

type listsResponse struct {
	Lists  []listResponse  `json:"lists,omitempty"`
	Groups []groupResponse `json:"groups,omitempty"`
}

// ListLists returns every list ordered by name, or grouped by creation day
// with ?grouped=true (zone from ?tz=, default server zone).
func ListLists(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped"))
		if !grouped {
			lists, err := d.Service.List(r.Context())
			if err != nil {
				writeError(w, d, r, err)
				return
			}
			writeJSON(w, http.StatusOK, listsResponse{Lists: toLists(lists)})
			return
		}

		loc, err := location(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		groups, err := d.Service.Grouped(r.Context(), loc)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listsResponse{Groups: toGroups(groups)})
	}
}

// CreateList validates and stores a new list.
func CreateList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}

		l, err := d.Service.Create(r.Context(), req.Name, req.prompts())
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		w.Header().Set("Location", "/api/lists/"+l.ID)
		writeJSON(w, http.StatusCreated, toList(l))
	}
}

// GetList returns the list's dispenser view.
func GetList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(v))
	}
}

// UpdateList replaces name and prompts.
func UpdateList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}

		l, err := d.Service.Edit(r.Context(), chi.URLParam(r, "id"), req.Name, req.prompts())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toList(l))
	}
}

// DeleteList removes a list and its cooldown.
func DeleteList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func location(d deps.Deps, r *http.Request) (*time.Location, error) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		if d.Location != nil {
			return d.Location, nil
		}
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &domain.ValidationError{Field: "tz", Reason: "unknown time zone " + strconv.Quote(name)}
	}
	return loc, nil
}
