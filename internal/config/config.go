package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store      string // "sqlite" | "redis"
	SQLitePath string // database file when Store is sqlite

	DelaySeconds  int           // default cooldown after a dispense, until the user sets one
	Clipboard     bool          // true => copy dispensed prompts to the system clipboard
	TickInterval  time.Duration // countdown stream granularity (default: 1s)
	SweepInterval time.Duration // expired cooldown sweep interval (default: 1m)
	SeedFile      string        // optional YAML file of lists imported at start and on reload

	// Redis
	RedisAddr           string        // ex: "localhost:6379", required when Store is redis
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP ranges (e.g. "10.0.0.0/8, 1.2.3.4")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst    int      // per-client burst
	RatePerMin   int      // per-client sustained requests per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("DISPENSER_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DISPENSER_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("DISPENSER_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DISPENSER_PRETTY_LOG", true),

		// Storage
		Store:      strings.ToLower(getenv("DISPENSER_STORE", StoreSQLite)),
		SQLitePath: getenv("DISPENSER_SQLITE_PATH", "dispenser.db"),

		// Dispenser
		DelaySeconds:  max(getenvInt("DISPENSER_DELAY_SECONDS", 0), 0),
		Clipboard:     mustBool("DISPENSER_CLIPBOARD", false),
		TickInterval:  mustDuration("DISPENSER_TICK_INTERVAL", time.Second),
		SweepInterval: mustDuration("DISPENSER_SWEEP_INTERVAL", time.Minute),
		SeedFile:      getenv("DISPENSER_SEED_FILE", ""), // Optional, empty = no seed import

		// Redis settings
		RedisUser:           getenv("DISPENSER_REDIS_USERNAME", ""),
		RedisPassword:       getenv("DISPENSER_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("DISPENSER_REDIS_DB", 0),
		RedisDT:             mustDuration("DISPENSER_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("DISPENSER_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("DISPENSER_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("DISPENSER_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("DISPENSER_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("DISPENSER_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("DISPENSER_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("DISPENSER_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("DISPENSER_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("DISPENSER_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("DISPENSER_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DISPENSER_TRUST_PROXY", false),
		RateBurst:    getenvInt("DISPENSER_RATE_BURST", 20),
		RatePerMin:   getenvInt("DISPENSER_RATE_PER_MIN", 120),
	}

	switch cfg.Store {
	case StoreSQLite:
	case StoreRedis:
		cfg.RedisAddr = requireEnv("DISPENSER_REDIS_ADDR")
	default:
		panic(fmt.Sprintf("❌ FATAL: DISPENSER_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, cfg.Store))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
