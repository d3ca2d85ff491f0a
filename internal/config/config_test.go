package config

import (
	"slices"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPanic bool
	}{
		{name: "variable set", value: "localhost:6379"},
		{name: "variable not set", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_REQUIRED", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv("TEST_REQUIRED")
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{name: "valid integer", value: "42", def: 1, expected: 42},
		{name: "negative integer", value: "-3", def: 1, expected: -3},
		{name: "invalid integer uses default", value: "ten", def: 10, expected: 10},
		{name: "missing variable uses default", value: "", def: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)

			if result := getenvInt("TEST_INT", tt.def); result != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)

			if result := mustDuration("TEST_DURATION", tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)

			if result := mustBool("TEST_BOOL", tt.def); result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "10.0.0.0/8", expected: []string{"10.0.0.0/8"}},
		{name: "spaces and quotes", input: ` "a.example" , 'b.example',, `, expected: []string{"a.example", "b.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := splitAndTrim(tt.input); !slices.Equal(result, tt.expected) {
				t.Errorf("splitAndTrim() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISPENSER_STORE", "")
	t.Setenv("DISPENSER_DELAY_SECONDS", "-5")

	cfg := Load()

	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %v, want %v", cfg.Store, StoreSQLite)
	}
	if cfg.DelaySeconds != 0 {
		t.Errorf("DelaySeconds = %v, want 0 (clamped)", cfg.DelaySeconds)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.SweepInterval)
	}
	if cfg.RateBurst != 20 || cfg.RatePerMin != 120 {
		t.Errorf("rate = %v/%v, want 20/120", cfg.RateBurst, cfg.RatePerMin)
	}
}

func TestLoadRedisRequiresAddr(t *testing.T) {
	t.Setenv("DISPENSER_STORE", "redis")
	t.Setenv("DISPENSER_REDIS_ADDR", "")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without DISPENSER_REDIS_ADDR")
		}
	}()
	Load()
}

func TestLoadRedis(t *testing.T) {
	t.Setenv("DISPENSER_STORE", "Redis")
	t.Setenv("DISPENSER_REDIS_ADDR", "localhost:6379")

	cfg := Load()
	if cfg.Store != StoreRedis {
		t.Errorf("Store = %v, want %v", cfg.Store, StoreRedis)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %v, want localhost:6379", cfg.RedisAddr)
	}
}

func TestLoadUnknownStore(t *testing.T) {
	t.Setenv("DISPENSER_STORE", "postgres")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked for unknown store")
		}
	}()
	Load()
}
