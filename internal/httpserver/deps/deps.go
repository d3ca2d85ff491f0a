package deps

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/dispenser/internal/index"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/service"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	Location     *time.Location   // day grouping zone, defaults to time.Local
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access the API
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	// RateLimit is shared by every API route so one client has one budget.
	// Nil disables rate limiting.
	RateLimit    func(http.Handler) http.Handler
	TickInterval time.Duration // countdown stream granularity

	Service       *service.Service    // dispense control flow
	Backend       store.Backend       // durable store, pinged by readyz/infra
	StoreKind     string              // "sqlite" | "redis"
	Index         *index.ListIndex    // in-memory list snapshot
	Gatherer      prometheus.Gatherer // served on /metrics
	SeedFile      string              // optional seed file, empty = import disabled
	ReloadTrigger chan struct{}       // Channel to trigger a manual seed import (nil if disabled)
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
