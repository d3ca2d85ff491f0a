package service

import (
	"context"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
)

// Dispense picks a prompt, persists the list, copies the prompt to the
// clipboard sink and starts the cooldown. It refuses while a cooldown runs.
func (s *Service) Dispense(ctx context.Context, id string) (Result, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	timer := s.timer(ctx, id)
	if st := timer.Query(ctx, s.now()); !st.Ready() {
		return Result{}, s.rejected(id, "cooling_down", &CoolingDownError{ListID: id, Remaining: st.Remaining})
	}

	out, err := s.dispenser.Dispense(l)
	if err != nil {
		return Result{}, s.rejected(id, "exhausted", err)
	}

	return s.apply(ctx, timer, out)
}

// SkipForward marks a prompt used without clipboard copy or cooldown.
// It is allowed during a cooldown.
func (s *Service) SkipForward(ctx context.Context, id string) (Result, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	out, err := s.dispenser.SkipForward(l)
	if err != nil {
		return Result{}, s.rejected(id, "exhausted", err)
	}

	return s.apply(ctx, s.timer(ctx, id), out)
}

// SkipBackward undoes the latest dispense. An active cooldown keeps running.
func (s *Service) SkipBackward(ctx context.Context, id string) (Result, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	out, err := s.dispenser.SkipBackward(l)
	if err != nil {
		return Result{}, s.rejected(id, "no_history", err)
	}

	return s.apply(ctx, s.timer(ctx, id), out)
}

// Reset clears the history and cancels the list's cooldown.
func (s *Service) Reset(ctx context.Context, id string) (Result, error) {
	unlock := s.lockList(id)
	defer unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	timer := s.timer(ctx, id)
	res, err := s.apply(ctx, timer, s.dispenser.Reset(l))
	if err != nil {
		return Result{}, err
	}

	timer.Cancel(ctx)
	res.View = s.view(res.View.List, domain.CooldownStatus{})
	return res, nil
}

// Cooldown reports the list's cooldown status now.
func (s *Service) Cooldown(ctx context.Context, id string) (domain.CooldownStatus, error) {
	if _, err := s.load(ctx, id); err != nil {
		return domain.CooldownStatus{}, err
	}
	return s.timer(ctx, id).Query(ctx, s.now()), nil
}

// CooldownTimer returns the list's timer so a view can drive a countdown.
func (s *Service) CooldownTimer(ctx context.Context, id string) (*domain.CooldownTimer, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.timer(ctx, id), nil
}

// apply persists out.List, then runs the side effects out asks for.
func (s *Service) apply(ctx context.Context, timer *domain.CooldownTimer, out domain.Outcome) (Result, error) {
	if err := s.persist(ctx, out.List); err != nil {
		return Result{}, err
	}

	res := Result{Action: out.Action, Prompt: out.Prompt}

	if out.CopyToClipboard {
		if err := s.clip.Write(out.Prompt); err != nil {
			s.log.Warn("failed to copy prompt to clipboard",
				logger.String("list_id", out.List.ID),
				logger.Error(err))
		} else {
			res.Copied = true
		}
	}

	now := s.now()
	var cd domain.CooldownStatus
	if out.StartCooldown {
		cd = timer.Start(ctx, s.DelaySeconds(ctx), now)
	} else {
		cd = timer.Query(ctx, now)
	}

	res.View = s.view(out.List, cd)
	s.metrics.Action(string(out.Action))
	s.log.Info("list action",
		logger.String("list_id", out.List.ID),
		logger.String("action", string(out.Action)),
		logger.Int("remaining", res.View.Remaining),
		logger.Duration("cooldown", cd.Remaining))

	return res, nil
}
