package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// LoadCooldown reads a list's cooldown end, in ms since the epoch
func (s *Store) LoadCooldown(ctx context.Context, listID string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, CooldownKey(listID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cooldown: %w", err)
	}

	end, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Malformed slot, treat as idle
		return 0, false, nil
	}
	return end, true, nil
}

// SaveCooldown stores a list's cooldown end
func (s *Store) SaveCooldown(ctx context.Context, listID string, endMillis int64) error {
	if err := s.client.Set(ctx, CooldownKey(listID), endMillis, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cooldown: %w", err)
	}
	return nil
}

// ClearCooldown removes a list's cooldown slot
func (s *Store) ClearCooldown(ctx context.Context, listID string) error {
	if err := s.client.Del(ctx, CooldownKey(listID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cooldown: %w", err)
	}
	return nil
}

// CooldownListIDs returns the IDs of lists holding a cooldown slot
func (s *Store) CooldownListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, KeyPrefixCooldown+"*", 0).Iterator()
	for iter.Next(ctx) {
		if id, ok := ExtractCooldownListID(iter.Val()); ok {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cooldowns: %w", err)
	}
	return ids, nil
}
