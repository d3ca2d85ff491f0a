package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DelaySeconds reads the user-selected cooldown duration
func (s *Store) DelaySeconds(ctx context.Context) (int, bool, error) {
	seconds, err := s.client.Get(ctx, KeyDelaySeconds).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get delay: %w", err)
	}
	return max(seconds, 0), true, nil
}

// SetDelaySeconds stores the cooldown duration, clamped at zero
func (s *Store) SetDelaySeconds(ctx context.Context, seconds int) error {
	if err := s.client.Set(ctx, KeyDelaySeconds, max(seconds, 0), 0).Err(); err != nil {
		return fmt.Errorf("failed to save delay: %w", err)
	}
	return nil
}
