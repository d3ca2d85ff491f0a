package redis

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

// publishChange tells every subscriber, in any process, that lists changed.
// Best effort: a lost message only delays a view refresh.
func (s *Store) publishChange(ctx context.Context, id string) {
	_ = s.client.Publish(ctx, ChannelListsChanged, id).Err()
}

// Subscribe streams list snapshots: one right away, then one per change
// published on ChannelListsChanged.
func (s *Store) Subscribe(ctx context.Context) (<-chan []domain.PromptList, error) {
	pubsub := s.client.Subscribe(ctx, ChannelListsChanged)

	// Wait for the subscription confirmation so no change is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to list changes: %w", err)
	}

	signals := make(chan struct{}, 1)
	signals <- struct{}{}

	go func() {
		defer close(signals)
		defer func() { _ = pubsub.Close() }()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case signals <- struct{}{}:
				default:
				}
			}
		}
	}()

	return store.Stream(ctx, signals, s.GetAll, nil), nil
}
