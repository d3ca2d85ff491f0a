package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/logger"
)

// CooldownRestorer re-reads persisted cooldowns and clears the ended ones.
type CooldownRestorer interface {
	RestoreCooldowns(ctx context.Context) (active int, err error)
}

// CooldownSweeper periodically restores every cooldown slot so ones that
// ended while nobody looked, or before a restart, are cleared.
type CooldownSweeper struct {
	restorer CooldownRestorer
	logger   logger.Logger
	interval time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCooldownSweeper creates a new sweeper
func NewCooldownSweeper(restorer CooldownRestorer, log logger.Logger, interval time.Duration) *CooldownSweeper {
	return &CooldownSweeper{
		restorer: restorer,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps once, then every interval until Stop or ctx ends.
func (cs *CooldownSweeper) Start(ctx context.Context) error {
	// Run immediately on start
	if err := cs.Sweep(ctx); err != nil {
		cs.logger.Warn("initial cooldown sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cs.Sweep(ctx); err != nil {
					cs.logger.Error("cooldown sweep failed",
						logger.Error(err))
				}
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (cs *CooldownSweeper) Stop() {
	cs.stopOnce.Do(func() { close(cs.stopCh) })
}

// Sweep runs one pass.
func (cs *CooldownSweeper) Sweep(ctx context.Context) error {
	active, err := cs.restorer.RestoreCooldowns(ctx)
	if err != nil {
		return err
	}

	cs.logger.Debug("cooldown sweep completed",
		logger.Int("active", active))
	return nil
}
