package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/dispenser/internal/utils"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int
	SweepInterval     time.Duration
	IdleTTL           time.Duration
	TrustProxy        bool // resolve IP from proxy headers when true
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	limit     rate.Limit
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerIPPerMin < 1 {
		cfg.RefillPerIPPerMin = 1
	}
	return &limiter{
		cfg:       cfg,
		limit:     rate.Limit(float64(cfg.RefillPerIPPerMin) / 60.0),
		clients:   make(map[string]*client, 1024),
		lastSweep: time.Now(),
	}
}

func (l *limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.clients) >= l.cfg.MaxEntries) {
		l.sweepLocked(now)
	}

	c := l.clients[key]
	if c == nil {
		c = &client{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// allow takes one token for key. When none is left it reports how many whole
// seconds until one is.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	lim := l.get(key, now)

	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, 0, max(int(math.Ceil(delay.Seconds())), 1)
	}
	return true, max(int(math.Floor(lim.TokensAt(now))), 0), 0
}

func (l *limiter) sweepLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit applies a per-client token bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)

			ok, remaining, retry := l.allow(key, time.Now())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
