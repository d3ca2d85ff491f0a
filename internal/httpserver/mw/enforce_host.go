package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/utils"
)

// EnforceHost allows requests only if the Host header matches one of the
// allowed hosts. Patterns like "*.example.com" match any subdomain, and a
// pattern without a port matches the host on any port.
// If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return passthrough
	}

	log.Debug("host filter enabled", logger.Strings("hosts", allowedHosts))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range allowedHosts {
				if MatchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Debug("host rejected", logger.String("host", r.Host))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// MatchHost reports whether host, with or without a port, matches pattern.
func MatchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)

	if host == pattern {
		return true
	}
	if bare := utils.ParseHostNoPort(host); bare != host {
		host = bare
		if host == pattern {
			return true
		}
	}

	// *.example.com matches sub.example.com but not example.com
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return false
}
