package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/mw"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/scheduler"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
)

func newUpgrader(d deps.Deps) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(d.AllowedHosts),
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-origin requests, and origins whose host is allowed.
func checkOrigin(allowedHosts []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, pattern := range allowedHosts {
			if mw.MatchHost(u.Host, pattern) {
				return true
			}
		}
		return false
	}
}

type countdownMessage struct {
	cooldownResponse
	Ready bool `json:"ready"`
}

// ListStream pushes the lists on connect and after every change. Query
// parameters are those of ListLists.
func ListStream(d deps.Deps) http.HandlerFunc {
	upgrader := newUpgrader(d)
	return func(w http.ResponseWriter, r *http.Request) {
		grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped"))
		loc, err := location(d, r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readUntilClosed(conn, cancel)

		snapshots, err := d.Service.Subscribe(ctx)
		if err != nil {
			d.Logger.Error("list subscription failed", logger.Error(err))
			closeWith(conn, websocket.CloseInternalServerErr, "subscription failed")
			return
		}

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			select {
			case lists, ok := <-snapshots:
				if !ok {
					closeWith(conn, websocket.CloseGoingAway, "")
					return
				}
				msg := listsResponse{Lists: toLists(lists)}
				if grouped {
					msg = listsResponse{Groups: toGroups(domain.GroupByDay(lists, loc))}
				}
				if err := writeMessage(conn, msg); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// CountdownStream sends the list's cooldown status once per tick and closes
// after the first ready status.
func CountdownStream(d deps.Deps) http.HandlerFunc {
	upgrader := newUpgrader(d)
	return func(w http.ResponseWriter, r *http.Request) {
		timer, err := d.Service.CooldownTimer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readUntilClosed(conn, cancel)

		lastPing := time.Now()
		countdown := scheduler.NewCountdown(timer.Query, d.TickInterval)
		err = countdown.Run(ctx, func(st domain.CooldownStatus) error {
			// Keep pongs coming so the read deadline holds for long cooldowns.
			if time.Since(lastPing) >= pingPeriod {
				lastPing = time.Now()
				if err := conn.WriteControl(websocket.PingMessage, nil, lastPing.Add(writeWait)); err != nil {
					return err
				}
			}
			return writeMessage(conn, countdownMessage{cooldownResponse: toCooldown(st), Ready: st.Ready()})
		})
		if err == nil {
			closeWith(conn, websocket.CloseNormalClosure, "ready")
		}
	}
}

// readUntilClosed drains client frames so control frames are handled, and
// cancels once the client goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeWait))
}
