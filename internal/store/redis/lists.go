package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

// Insert stores a new list. It fails if the ID is already taken.
func (s *Store) Insert(ctx context.Context, l domain.PromptList) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}

	created, err := s.client.SetNX(ctx, ListKey(l.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}
	if !created {
		return fmt.Errorf("list already exists: %s", l.ID)
	}

	// Add to set of all lists
	if err := s.client.SAdd(ctx, AllListsKey(), l.ID).Err(); err != nil {
		return fmt.Errorf("failed to add list to set: %w", err)
	}

	s.publishChange(ctx, l.ID)
	return nil
}

// Update replaces an existing list record
func (s *Store) Update(ctx context.Context, l domain.PromptList) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}

	// XX: only overwrite, never resurrect a deleted list
	updated, err := s.client.SetXX(ctx, ListKey(l.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: %s", store.ErrNotFound, l.ID)
	}

	s.publishChange(ctx, l.ID)
	return nil
}

// Get retrieves a list by ID
func (s *Store) Get(ctx context.Context, id string) (domain.PromptList, error) {
	data, err := s.client.Get(ctx, ListKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PromptList{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return domain.PromptList{}, fmt.Errorf("failed to get list: %w", err)
	}

	return decodeList(data)
}

// GetAll retrieves every list, ordered by name
func (s *Store) GetAll(ctx context.Context) ([]domain.PromptList, error) {
	ids, err := s.client.SMembers(ctx, AllListsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get list IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.PromptList{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ListKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}

	lists := make([]domain.PromptList, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Set member without a record, skip it
			continue
		}
		l, err := decodeList([]byte(raw))
		if err != nil {
			s.log.Warn("skipping undecodable list record",
				logger.String("list_id", ids[i]),
				logger.Error(err))
			continue
		}
		lists = append(lists, l)
	}

	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].Name < lists[j].Name
	})
	return lists, nil
}

// Delete removes a list and its cooldown slot
func (s *Store) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, ListKey(id))
		pipe.SRem(ctx, AllListsKey(), id)
		pipe.Del(ctx, CooldownKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}

	s.publishChange(ctx, id)
	return nil
}

func decodeList(data []byte) (domain.PromptList, error) {
	var l domain.PromptList
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.PromptList{}, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	if l.UsedPrompts == nil {
		l.UsedPrompts = []string{}
	}
	return l, nil
}
