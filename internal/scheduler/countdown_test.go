package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// steps returns a query that reports active for n calls, then ready.
func steps(n int) (QueryFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context, time.Time) domain.CooldownStatus {
		if int(calls.Add(1)) <= n {
			return domain.CooldownStatus{Active: true, Remaining: time.Second}
		}
		return domain.CooldownStatus{}
	}, &calls
}

func TestCountdownStopsAfterReady(t *testing.T) {
	query, calls := steps(2)
	cd := NewCountdown(query, time.Millisecond)

	var got []domain.CooldownStatus
	err := cd.Run(context.Background(), func(st domain.CooldownStatus) error {
		got = append(got, st)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Run() emitted %v statuses, want 3", len(got))
	}
	if !got[2].Ready() {
		t.Errorf("last status = %+v, want ready", got[2])
	}
	if calls.Load() != 3 {
		t.Errorf("query calls = %v, want 3", calls.Load())
	}
}

func TestCountdownReadyImmediately(t *testing.T) {
	query, _ := steps(0)
	cd := NewCountdown(query, time.Hour)

	emitted := 0
	err := cd.Run(context.Background(), func(domain.CooldownStatus) error {
		emitted++
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if emitted != 1 {
		t.Errorf("Run() emitted %v statuses, want 1", emitted)
	}
}

func TestCountdownStop(t *testing.T) {
	query, _ := steps(1 << 30)
	cd := NewCountdown(query, time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- cd.Run(context.Background(), func(domain.CooldownStatus) error { return nil })
	}()

	cd.Stop()
	cd.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after Stop() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Stop()")
	}
}

func TestCountdownContextCancel(t *testing.T) {
	query, _ := steps(1 << 30)
	cd := NewCountdown(query, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cd.Run(ctx, func(domain.CooldownStatus) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestCountdownEmitError(t *testing.T) {
	query, calls := steps(5)
	cd := NewCountdown(query, time.Millisecond)
	boom := errors.New("client gone")

	err := cd.Run(context.Background(), func(domain.CooldownStatus) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
	if calls.Load() != 1 {
		t.Errorf("query calls = %v, want 1", calls.Load())
	}
}

func TestCountdownWithTimer(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timer := domain.NewCooldownTimer("list-1", nil)
	timer.Start(context.Background(), 2, start)

	cd := NewCountdown(timer.Query, time.Millisecond)
	now := start
	cd.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	var labels []string
	err := cd.Run(context.Background(), func(st domain.CooldownStatus) error {
		labels = append(labels, domain.FormatCountdown(st.Remaining))
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"Next available in: 00:01", "Next available in: 00:00"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %v, want %v", i, labels[i], want[i])
		}
	}
}
