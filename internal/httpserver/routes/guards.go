package routes

import (
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/mw"
)

// requestTimeout bounds plain API requests. Websocket routes are exempt.
const requestTimeout = 5 * time.Second

// guards restricts a route to allowed clients and hosts and applies the
// shared rate limit.
func guards(d deps.Deps) []Middleware {
	out := []Middleware{
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	}
	if d.RateLimit != nil {
		out = append(out, d.RateLimit)
	}
	return out
}

// apiGuards is guards plus the request timeout.
func apiGuards(d deps.Deps) []Middleware {
	return append(guards(d), middleware.Timeout(requestTimeout))
}
