package domain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CooldownSlot persists a cooldown end instant per list, in milliseconds since
// the epoch. A missing slot reports ok=false.
type CooldownSlot interface {
	LoadCooldown(ctx context.Context, listID string) (endMillis int64, ok bool, err error)
	SaveCooldown(ctx context.Context, listID string, endMillis int64) error
	ClearCooldown(ctx context.Context, listID string) error
}

// MaxCooldownSeconds bounds a cooldown to 30 days.
const MaxCooldownSeconds = 30 * 24 * 60 * 60

// CooldownStatus is a point-in-time view of a cooldown.
type CooldownStatus struct {
	Active    bool
	EndsAt    time.Time
	Remaining time.Duration
}

// Ready reports whether dispensing is allowed.
func (s CooldownStatus) Ready() bool { return !s.Active }

// CooldownTimer is a two-state machine, Idle or Active(end), for one list.
//
// It owns no clock: callers pass the current instant and drive any ticking.
// None of its operations fail. Persistence errors go to the error handler and
// unreadable state is treated as Idle.
type CooldownTimer struct {
	listID  string
	slot    CooldownSlot
	onError func(error)

	mu  sync.Mutex
	end time.Time // zero while Idle
}

// CooldownOption configures a CooldownTimer.
type CooldownOption func(*CooldownTimer)

// WithErrorHandler receives persistence errors the timer otherwise swallows.
func WithErrorHandler(fn func(error)) CooldownOption {
	return func(t *CooldownTimer) { t.onError = fn }
}

// NewCooldownTimer creates an Idle timer for listID. A nil slot keeps the
// cooldown in memory only.
func NewCooldownTimer(listID string, slot CooldownSlot, opts ...CooldownOption) *CooldownTimer {
	t := &CooldownTimer{
		listID:  listID,
		slot:    slot,
		onError: func(error) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ListID returns the list the timer belongs to.
func (t *CooldownTimer) ListID() string { return t.listID }

// Start begins a cooldown of durationSeconds from now, capped at
// MaxCooldownSeconds. A non-positive duration leaves the timer Idle.
func (t *CooldownTimer) Start(ctx context.Context, durationSeconds int, now time.Time) CooldownStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if durationSeconds <= 0 {
		t.toIdle(ctx)
		return CooldownStatus{}
	}

	durationSeconds = min(durationSeconds, MaxCooldownSeconds)
	t.end = now.Add(time.Duration(durationSeconds) * time.Second)
	t.save(ctx, t.end)
	return t.statusLocked(now)
}

// Query reports the status at now, expiring the cooldown once it has ended.
func (t *CooldownTimer) Query(ctx context.Context, now time.Time) CooldownStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queryLocked(ctx, now)
}

func (t *CooldownTimer) queryLocked(ctx context.Context, now time.Time) CooldownStatus {
	if t.end.IsZero() {
		return CooldownStatus{}
	}
	if !now.Before(t.end) {
		t.toIdle(ctx)
		return CooldownStatus{}
	}
	return t.statusLocked(now)
}

// Restore loads the persisted end instant. Ended cooldowns are discarded.
// When the slot cannot be read the in-memory state is kept as is.
func (t *CooldownTimer) Restore(ctx context.Context, now time.Time) CooldownStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slot == nil {
		return t.queryLocked(ctx, now)
	}

	endMillis, ok, err := t.slot.LoadCooldown(ctx, t.listID)
	if err != nil {
		t.onError(fmt.Errorf("load cooldown for list %s: %w", t.listID, err))
		return t.queryLocked(ctx, now)
	}
	if !ok {
		t.end = time.Time{}
		return CooldownStatus{}
	}

	end := time.UnixMilli(endMillis)
	if endMillis <= 0 || !now.Before(end) {
		t.toIdle(ctx)
		return CooldownStatus{}
	}

	t.end = end
	return t.statusLocked(now)
}

// Cancel forces the timer Idle and clears persisted state.
func (t *CooldownTimer) Cancel(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toIdle(ctx)
}

func (t *CooldownTimer) statusLocked(now time.Time) CooldownStatus {
	return CooldownStatus{
		Active:    true,
		EndsAt:    t.end,
		Remaining: t.end.Sub(now),
	}
}

func (t *CooldownTimer) toIdle(ctx context.Context) {
	t.end = time.Time{}
	t.clear(ctx)
}

func (t *CooldownTimer) save(ctx context.Context, end time.Time) {
	if t.slot == nil {
		return
	}
	if err := t.slot.SaveCooldown(ctx, t.listID, end.UnixMilli()); err != nil {
		t.onError(fmt.Errorf("save cooldown for list %s: %w", t.listID, err))
	}
}

func (t *CooldownTimer) clear(ctx context.Context) {
	if t.slot == nil {
		return
	}
	if err := t.slot.ClearCooldown(ctx, t.listID); err != nil {
		t.onError(fmt.Errorf("clear cooldown for list %s: %w", t.listID, err))
	}
}

// FormatCountdown renders remaining time as the countdown label.
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	secondsLeft := int(remaining / time.Second)
	return fmt.Sprintf("Next available in: %02d:%02d", secondsLeft/60, secondsLeft%60)
}
