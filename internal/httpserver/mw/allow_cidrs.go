package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/utils"
)

// AllowOnlyCIDRS lets through only clients whose address matches allowed
// (IPs or CIDRs). An empty list disables filtering.
// trustProxy should be true when running behind a trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return passthrough
	}

	log.Debug("client address filter enabled",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("client address rejected",
					logger.String("ip", ip),
					logger.String("remote_addr", r.RemoteAddr),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }
