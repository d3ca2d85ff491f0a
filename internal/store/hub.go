package store

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// Hub fans change signals out to in-process watchers.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Watch returns a signal channel that is already primed once, so the first
// receive yields the initial snapshot. It is unregistered when ctx is done.
func (h *Hub) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}()

	return ch
}

// Notify signals every watcher. Pending signals coalesce.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of registered watchers.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Loader reads a full snapshot of the lists.
type Loader func(ctx context.Context) ([]domain.PromptList, error)

// Stream turns change signals into snapshots. A failed load is passed to
// onErr and skipped; the next signal retries. The returned channel is closed
// once ctx is done or signals is closed.
func Stream(ctx context.Context, signals <-chan struct{}, load Loader, onErr func(error)) <-chan []domain.PromptList {
	out := make(chan []domain.PromptList, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
			}

			snapshot, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if onErr != nil {
					onErr(err)
				}
				continue
			}

			// Keep only the newest snapshot for slow readers.
			select {
			case <-out:
			default:
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
