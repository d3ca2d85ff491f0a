package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

// Create validates and stores a new list.
func (s *Service) Create(ctx context.Context, name string, prompts []string) (domain.PromptList, error) {
	l, err := domain.NewPromptList(name, prompts, s.now())
	if err != nil {
		return domain.PromptList{}, s.rejected("", "validation", err)
	}

	if err := s.lists.Insert(ctx, l); err != nil {
		s.metrics.StoreError("insert")
		return domain.PromptList{}, fmt.Errorf("create list: %w", err)
	}

	s.log.Info("list created",
		logger.String("list_id", l.ID),
		logger.String("name", l.Name),
		logger.Int("prompts", len(l.AllPrompts)))
	return l, nil
}

// Edit replaces a list's name and prompts. History is left as is.
func (s *Service) Edit(ctx context.Context, id, name string, prompts []string) (domain.PromptList, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return domain.PromptList{}, err
	}

	edited, err := l.Edit(name, prompts)
	if err != nil {
		return domain.PromptList{}, s.rejected(id, "validation", err)
	}

	if err := s.persist(ctx, edited); err != nil {
		return domain.PromptList{}, err
	}

	s.log.Info("list updated",
		logger.String("list_id", id),
		logger.Int("prompts", len(edited.AllPrompts)))
	return edited, nil
}

// Delete removes a list and its cooldown.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.lockList(id)
	defer unlock()

	if err := s.lists.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.StoreError("delete")
		}
		return err
	}
	s.forget(id)

	s.log.Info("list deleted", logger.String("list_id", id))
	return nil
}

// Get returns a list view with its cooldown status.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(l, s.timer(ctx, id).Query(ctx, s.now())), nil
}

// List returns every list, ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.PromptList, error) {
	lists, err := s.lists.GetAll(ctx)
	if err != nil {
		s.metrics.StoreError("get_all")
		return nil, err
	}
	return lists, nil
}

// Grouped returns every list grouped by creation day in loc, newest first.
func (s *Service) Grouped(ctx context.Context, loc *time.Location) ([]domain.DayGroup, error) {
	lists, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.GroupByDay(lists, loc), nil
}

// Subscribe streams list snapshots on every change.
func (s *Service) Subscribe(ctx context.Context) (<-chan []domain.PromptList, error) {
	return s.lists.Subscribe(ctx)
}

// DelaySeconds is the cooldown duration applied after a dispense.
func (s *Service) DelaySeconds(ctx context.Context) int {
	seconds, ok, err := s.settings.DelaySeconds(ctx)
	if err != nil {
		s.metrics.StoreError("settings")
		s.log.Warn("failed to read delay setting, using default",
			logger.Int("default", s.defaultDelay),
			logger.Error(err))
		return s.defaultDelay
	}
	if !ok {
		return s.defaultDelay
	}
	return clampDelay(seconds)
}

// SetDelaySeconds stores the cooldown duration, clamped at zero, and
// returns the stored value. Delays above domain.MaxCooldownSeconds are
// rejected.
func (s *Service) SetDelaySeconds(ctx context.Context, seconds int) (int, error) {
	if seconds > domain.MaxCooldownSeconds {
		return 0, s.rejected("", "validation", &domain.ValidationError{
			Field:  "delaySeconds",
			Reason: fmt.Sprintf("delaySeconds must be at most %d", domain.MaxCooldownSeconds),
		})
	}
	seconds = max(seconds, 0)
	if err := s.settings.SetDelaySeconds(ctx, seconds); err != nil {
		s.metrics.StoreError("settings")
		return 0, fmt.Errorf("save delay: %w", err)
	}
	s.log.Info("delay updated", logger.Int("delay_seconds", seconds))
	return seconds, nil
}

func clampDelay(seconds int) int {
	return min(max(seconds, 0), domain.MaxCooldownSeconds)
}

// RestoreCooldowns re-reads every persisted cooldown slot, discarding the
// ones that already ended, and returns how many are still running.
func (s *Service) RestoreCooldowns(ctx context.Context) (int, error) {
	ids, err := s.cooldowns.CooldownListIDs(ctx)
	if err != nil {
		s.metrics.StoreError("cooldown")
		return 0, fmt.Errorf("list cooldowns: %w", err)
	}

	now := s.now()
	active := 0
	for _, id := range ids {
		if st := s.timer(ctx, id).Restore(ctx, now); st.Active {
			active++
		}
	}
	s.metrics.SetActiveCooldowns(active)
	return active, nil
}

// ImportStats counts what UpsertByName changed.
type ImportStats struct {
	Created   int
	Updated   int
	Unchanged int
}

// UpsertByName creates lists whose name is unknown and replaces the prompts
// of lists matched by name. Dispense history of matched lists is kept.
func (s *Service) UpsertByName(ctx context.Context, seeds []domain.PromptList) (ImportStats, error) {
	var stats ImportStats

	existing, err := s.List(ctx)
	if err != nil {
		return stats, err
	}
	byName := make(map[string]string, len(existing))
	for _, l := range existing {
		byName[l.Name] = l.ID
	}

	for _, seed := range seeds {
		id, ok := byName[strings.TrimSpace(seed.Name)]
		if !ok {
			created, err := s.Create(ctx, seed.Name, seed.AllPrompts)
			if err != nil {
				return stats, fmt.Errorf("import %q: %w", seed.Name, err)
			}
			byName[created.Name] = created.ID
			stats.Created++
			continue
		}

		changed, err := s.replacePrompts(ctx, id, seed.AllPrompts)
		if err != nil {
			return stats, fmt.Errorf("import %q: %w", seed.Name, err)
		}
		if changed {
			stats.Updated++
		} else {
			stats.Unchanged++
		}
	}
	return stats, nil
}

func (s *Service) replacePrompts(ctx context.Context, id string, prompts []string) (bool, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}

	edited, err := l.Edit(l.Name, prompts)
	if err != nil {
		return false, s.rejected(id, "validation", err)
	}
	if slices.Equal(edited.AllPrompts, l.AllPrompts) {
		return false, nil
	}
	return true, s.persist(ctx, edited)
}
