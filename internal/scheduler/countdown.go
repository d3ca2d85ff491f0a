package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// QueryFunc reports a cooldown status at now. (*domain.CooldownTimer).Query
// satisfies it.
type QueryFunc func(ctx context.Context, now time.Time) domain.CooldownStatus

// Countdown polls a cooldown at a fixed interval and hands every status to a
// callback until the cooldown is ready.
type Countdown struct {
	query    QueryFunc
	interval time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCountdown creates a countdown over query. A non-positive interval
// defaults to one second.
func NewCountdown(query QueryFunc, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		query:    query,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Run emits the current status right away, then once per tick. It returns
// nil after emitting the first ready status or after Stop, ctx.Err() when
// ctx ends, and the callback's error if it fails.
func (c *Countdown) Run(ctx context.Context, emit func(domain.CooldownStatus) error) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		st := c.query(ctx, c.now())
		if err := emit(st); err != nil {
			return err
		}
		if st.Ready() {
			return nil
		}

		select {
		case <-ticker.C:
		case <-c.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
