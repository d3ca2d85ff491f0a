// Package metrics exposes Prometheus collectors for dispenser activity.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dispenser"

// Metrics groups the dispenser collectors.
type Metrics struct {
	Actions         *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	CooldownsActive prometheus.Gauge
	storeErrors     *prometheus.CounterVec
}

// MustNew registers the collectors with reg (the default registerer when nil).
// Collectors already registered under the same name are reused, so building
// several instances against one registry is safe.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Completed list actions by kind (dispense, skip_forward, skip_backward, reset).",
		}, []string{"action"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Actions refused for an expected reason (exhausted, no_history, cooling_down, validation).",
		}, []string{"reason"}),
		CooldownsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cooldowns_active",
			Help:      "Cooldown slots still running after the last sweep.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed store operations by operation.",
		}, []string{"op"}),
	}

	m.Actions = register(reg, m.Actions)
	m.Rejections = register(reg, m.Rejections)
	m.CooldownsActive = register(reg, m.CooldownsActive)
	m.storeErrors = register(reg, m.storeErrors)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Action counts a completed action.
func (m *Metrics) Action(action string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action).Inc()
}

// Rejected counts an expected refusal.
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// StoreError counts a failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// SetActiveCooldowns records the number of running cooldowns.
func (m *Metrics) SetActiveCooldowns(n int) {
	if m == nil {
		return
	}
	m.CooldownsActive.Set(float64(n))
}
