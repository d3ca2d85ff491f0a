// Package service runs the dispense control flow: load the latest persisted
// list, apply a Dispenser operation, persist the new version, then perform
// the requested side effects (clipboard copy, cooldown).
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/clipboard"
	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/metrics"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

// CoolingDownError refuses a dispense while the list's cooldown runs.
type CoolingDownError struct {
	ListID    string
	Remaining time.Duration
}

func (e *CoolingDownError) Error() string {
	return domain.FormatCountdown(e.Remaining)
}

// IsCoolingDown reports whether err is, or wraps, a CoolingDownError.
func IsCoolingDown(err error) bool {
	var target *CoolingDownError
	return errors.As(err, &target)
}

// Options wires a Service. Lists, Settings and Cooldowns are required.
type Options struct {
	Lists     store.ListStore
	Settings  store.SettingsStore
	Cooldowns store.CooldownStore

	Picker    domain.Picker    // nil uses math/rand/v2
	Clipboard clipboard.Sink   // nil discards
	Metrics   *metrics.Metrics // nil disables
	Logger    logger.Logger    // nil discards
	Now       func() time.Time // nil uses time.Now

	// DefaultDelaySeconds applies until the user picks a delay.
	DefaultDelaySeconds int
}

// Service is safe for concurrent use. Operations on the same list are
// serialized so none of them reads a version another one is replacing.
type Service struct {
	lists        store.ListStore
	settings     store.SettingsStore
	cooldowns    store.CooldownStore
	dispenser    *domain.Dispenser
	clip         clipboard.Sink
	metrics      *metrics.Metrics
	log          logger.Logger
	now          func() time.Time
	defaultDelay int

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers map[string]*domain.CooldownTimer
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		lists:        opts.Lists,
		settings:     opts.Settings,
		cooldowns:    opts.Cooldowns,
		dispenser:    domain.NewDispenser(opts.Picker),
		clip:         opts.Clipboard,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		now:          opts.Now,
		defaultDelay: clampDelay(opts.DefaultDelaySeconds),
		locks:        make(map[string]*sync.Mutex),
		timers:       make(map[string]*domain.CooldownTimer),
	}
	if s.clip == nil {
		s.clip = clipboard.Nop{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// View is a list together with what its dispenser screen shows.
type View struct {
	List            domain.PromptList
	Remaining       int
	Summary         string
	Status          string
	Cooldown        domain.CooldownStatus
	CanDispense     bool
	CanSkipForward  bool
	CanSkipBackward bool
}

// Result is the outcome of an action, after persistence.
type Result struct {
	Action domain.Action
	Prompt string
	Copied bool
	View   View
}

func (s *Service) lockList(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// timer returns the list's cooldown timer, restoring it from its slot on
// first use.
func (s *Service) timer(ctx context.Context, id string) *domain.CooldownTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		return t
	}

	t := domain.NewCooldownTimer(id, s.cooldowns, domain.WithErrorHandler(func(err error) {
		s.metrics.StoreError("cooldown")
		s.log.Warn("cooldown persistence failed",
			logger.String("list_id", id),
			logger.Error(err))
	}))
	t.Restore(ctx, s.now())
	s.timers[id] = t
	return t
}

func (s *Service) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	delete(s.locks, id)
}

func (s *Service) view(l domain.PromptList, cd domain.CooldownStatus) View {
	remaining := l.Remaining()
	return View{
		List:            l,
		Remaining:       remaining,
		Summary:         l.Summary(),
		Status:          l.Status(),
		Cooldown:        cd,
		CanDispense:     remaining > 0 && cd.Ready(),
		CanSkipForward:  remaining > 0,
		CanSkipBackward: len(l.UsedPrompts) > 0,
	}
}

func (s *Service) load(ctx context.Context, id string) (domain.PromptList, error) {
	l, err := s.lists.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.StoreError("get")
		}
		return domain.PromptList{}, err
	}
	return l, nil
}

func (s *Service) persist(ctx context.Context, l domain.PromptList) error {
	if err := s.lists.Update(ctx, l); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.StoreError("update")
		}
		return fmt.Errorf("save list %s: %w", l.ID, err)
	}
	return nil
}

func (s *Service) rejected(id string, reason string, err error) error {
	s.metrics.Rejected(reason)
	s.log.Debug("action rejected",
		logger.String("list_id", id),
		logger.String("reason", reason),
		logger.Error(err))
	return err
}
