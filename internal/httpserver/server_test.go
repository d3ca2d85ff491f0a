package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dispenser/internal/clipboard"
	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/index"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/metrics"
	"github.com/MrSnakeDoc/dispenser/internal/service"
	"github.com/MrSnakeDoc/dispenser/internal/store/sqlite"
)

type firstPicker struct{}

func (firstPicker) IntN(int) int { return 0 }

func newTestRouter(t *testing.T, delay int) (http.Handler, deps.Deps) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "dispenser.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	svc := service.New(service.Options{
		Lists:               db,
		Settings:            db,
		Cooldowns:           db,
		Picker:              firstPicker{},
		Clipboard:           &clipboard.Memory{},
		Metrics:             metrics.MustNew(reg),
		DefaultDelaySeconds: delay,
	})

	d := deps.Deps{
		Logger:       logger.NewNop(),
		StartTime:    time.Now(),
		Version:      "test",
		Location:     time.UTC,
		TickInterval: 10 * time.Millisecond,
		Service:      svc,
		Backend:      db,
		StoreKind:    "sqlite",
		Gatherer:     reg,
	}
	return NewRouter(d.Logger, d), d
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AllPrompts  []string `json:"allPrompts"`
	UsedPrompts []string `json:"usedPrompts"`
	Remaining   int      `json:"remaining"`
	Summary     string   `json:"summary"`
	Status      string   `json:"status"`
	CanDispense bool     `json:"canDispense"`
	Cooldown    struct {
		Active      bool   `json:"active"`
		RemainingMs int64  `json:"remainingMs"`
		Label       string `json:"label"`
	} `json:"cooldown"`
}

type resultJSON struct {
	Action string   `json:"action"`
	Prompt string   `json:"prompt"`
	Copied bool     `json:"copied"`
	List   listJSON `json:"list"`
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field"`
}

func createList(t *testing.T, h http.Handler, body any) listJSON {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/lists", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[listJSON](t, rec)
}

func TestCreateAndGetList(t *testing.T) {
	h, _ := newTestRouter(t, 0)

	created := createList(t, h, map[string]any{
		"name":    "Warmups",
		"prompts": []string{"A"},
		"text":    "B\n\n  \nC",
	})
	assert.Equal(t, []string{"A", "B", "C"}, created.AllPrompts)
	assert.Equal(t, "3 prompts (0 used)", created.Summary)

	rec := do(t, h, http.MethodGet, "/api/lists/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[listJSON](t, rec)
	assert.Equal(t, "3 prompts remaining", got.Status)
	assert.True(t, got.CanDispense)
}

func TestCreateValidation(t *testing.T) {
	h, _ := newTestRouter(t, 0)

	rec := do(t, h, http.MethodPost, "/api/lists", map[string]any{"name": " ", "prompts": []string{"A"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[errorJSON](t, rec)
	assert.Equal(t, "List name cannot be empty", e.Error)
	assert.Equal(t, "name", e.Field)

	rec = do(t, h, http.MethodPost, "/api/lists", map[string]any{"name": "X", "text": "\n\n"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Add at least one prompt", decode[errorJSON](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/lists", map[string]any{"name": "X", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispenseFlow(t *testing.T) {
	h, _ := newTestRouter(t, 30)
	l := createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A", "B"}})
	base := "/api/lists/" + l.ID

	rec := do(t, h, http.MethodPost, base+"/dispense", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultJSON](t, rec)
	assert.Equal(t, "dispense", res.Action)
	assert.Equal(t, "A", res.Prompt)
	assert.True(t, res.Copied)
	assert.True(t, res.List.Cooldown.Active)
	assert.False(t, res.List.CanDispense)

	rec = do(t, h, http.MethodPost, base+"/dispense", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	e := decode[errorJSON](t, rec)
	assert.Equal(t, "cooling_down", e.Code)
	assert.True(t, strings.HasPrefix(e.Error, "Next available in: 00:"), e.Error)

	rec = do(t, h, http.MethodGet, base+"/cooldown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":true`)

	rec = do(t, h, http.MethodPost, base+"/skip-forward", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B", decode[resultJSON](t, rec).Prompt)

	rec = do(t, h, http.MethodPost, base+"/skip-forward", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "No more prompts!", decode[errorJSON](t, rec).Error)

	rec = do(t, h, http.MethodPost, base+"/skip-backward", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[resultJSON](t, rec).List.Remaining)

	rec = do(t, h, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decode[resultJSON](t, rec)
	assert.Equal(t, 2, reset.List.Remaining)
	assert.False(t, reset.List.Cooldown.Active)

	rec = do(t, h, http.MethodPost, base+"/skip-backward", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_history", decode[errorJSON](t, rec).Code)
}

func TestUpdateAndDeleteList(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	l := createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A"}})

	rec := do(t, h, http.MethodPut, "/api/lists/"+l.ID, map[string]any{"name": "Renamed", "prompts": []string{"A", "B"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[listJSON](t, rec).Name)

	rec = do(t, h, http.MethodDelete, "/api/lists/"+l.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, path := range []string{"/api/lists/" + l.ID, "/api/lists/" + l.ID + "/cooldown"} {
		rec = do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec = do(t, h, http.MethodPost, "/api/lists/"+l.ID+"/dispense", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListListsGrouped(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	createList(t, h, map[string]any{"name": "b", "prompts": []string{"x"}})
	createList(t, h, map[string]any{"name": "a", "prompts": []string{"y"}})

	rec := do(t, h, http.MethodGet, "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	flat := decode[struct {
		Lists []listJSON `json:"lists"`
	}](t, rec)
	require.Len(t, flat.Lists, 2)
	assert.Equal(t, "a", flat.Lists[0].Name)

	rec = do(t, h, http.MethodGet, "/api/lists?grouped=true&tz=UTC", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	grouped := decode[struct {
		Groups []struct {
			Label string     `json:"label"`
			Lists []listJSON `json:"lists"`
		} `json:"groups"`
	}](t, rec)
	require.Len(t, grouped.Groups, 1)
	assert.Len(t, grouped.Groups[0].Lists, 2)
	assert.Equal(t, time.Now().UTC().Format("Monday, January 2, 2006"), grouped.Groups[0].Label)

	rec = do(t, h, http.MethodGet, "/api/lists?grouped=true&tz=Nowhere/Special", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	h, _ := newTestRouter(t, 5)

	rec := do(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"delaySeconds":5}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/settings", map[string]any{"delaySeconds": -20})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"delaySeconds":0}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/settings", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/settings", map[string]any{"delaySeconds": 10_000_000_000})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "delaySeconds", decode[errorJSON](t, rec).Field)

	rec = do(t, h, http.MethodGet, "/api/settings", nil)
	assert.JSONEq(t, `{"delaySeconds":0}`, rec.Body.String(), "rejected delay is not stored")
}

func TestOperationalEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	l := createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A"}})
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/lists/"+l.ID+"/dispense", nil).Code)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"sqlite"`)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dispenser_actions_total{action="dispense"} 1`)

	rec = do(t, h, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "reload without a seed file")
}

func TestReloadTrigger(t *testing.T) {
	_, d := newTestRouter(t, 0)
	d.ReloadTrigger = make(chan struct{}, 1)
	d.SeedFile = "seed.yaml"
	h := NewRouter(d.Logger, d)

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/reload", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/reload", nil).Code)
}

func TestGuards(t *testing.T) {
	_, d := newTestRouter(t, 0)
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	d.AllowedHosts = []string{"dispenser.example"}
	h := NewRouter(d.Logger, d)

	req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	req.Host = "dispenser.example"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	req.Host = "dispenser.example"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "healthz stays open")
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestListStream(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/lists/stream"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial struct {
		Lists []listJSON `json:"lists"`
	}
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Empty(t, initial.Lists)

	createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A"}})

	var next struct {
		Lists []listJSON `json:"lists"`
	}
	require.NoError(t, conn.ReadJSON(&next))
	require.Len(t, next.Lists, 1)
	assert.Equal(t, "Warmups", next.Lists[0].Name)
}

func TestCountdownStream(t *testing.T) {
	h, _ := newTestRouter(t, 1)
	srv := httptest.NewServer(h)
	defer srv.Close()

	l := createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A", "B"}})
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/lists/"+l.ID+"/dispense", nil).Code)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/lists/"+l.ID+"/countdown"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	type tick struct {
		Active bool   `json:"active"`
		Label  string `json:"label"`
		Ready  bool   `json:"ready"`
	}

	var first tick
	require.NoError(t, conn.ReadJSON(&first))
	assert.True(t, first.Active)
	assert.True(t, strings.HasPrefix(first.Label, "Next available in: 00:0"), first.Label)

	for {
		var msg tick
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Ready {
			assert.False(t, msg.Active)
			break
		}
	}

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestCountdownStreamUnknownList(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/lists/missing/countdown"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReadinessFollowsIndex(t *testing.T) {
	_, d := newTestRouter(t, 0)
	d.Index = index.NewListIndex()
	h := NewRouter(d.Logger, d)

	rec := do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "lists not loaded")

	d.Index.Replace([]domain.PromptList{{ID: "1", Name: "a", AllPrompts: []string{"x"}, UsedPrompts: []string{"x"}}}, time.Now())

	rec = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"lists_exhausted":1`)
}

func TestListStreamGroupedAcceptsBoolForms(t *testing.T) {
	h, _ := newTestRouter(t, 0)
	createList(t, h, map[string]any{"name": "Warmups", "prompts": []string{"A"}})
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/lists/stream?grouped=1&tz=UTC"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Lists  []listJSON `json:"lists"`
		Groups []struct {
			Lists []listJSON `json:"lists"`
		} `json:"groups"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Empty(t, msg.Lists)
	require.Len(t, msg.Groups, 1)
	assert.Len(t, msg.Groups[0].Lists, 1)
}

func TestStreamOrigins(t *testing.T) {
	_, d := newTestRouter(t, 0)
	d.AllowedHosts = []string{"127.0.0.1", "*.dispenser.example"}
	srv := httptest.NewServer(NewRouter(d.Logger, d))
	defer srv.Close()

	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{name: "no origin", origin: "", want: http.StatusSwitchingProtocols},
		{name: "same origin", origin: srv.URL, want: http.StatusSwitchingProtocols},
		{name: "allowed host", origin: "https://app.dispenser.example", want: http.StatusSwitchingProtocols},
		{name: "foreign page", origin: "https://evil.example", want: http.StatusForbidden},
		{name: "opaque origin", origin: "null", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/lists/stream"), header)
			if conn != nil {
				defer conn.Close()
			}
			require.NotNil(t, resp, "dial error: %v", err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
