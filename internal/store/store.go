// Package store defines the persistence contracts of the dispenser and the
// change hub shared by its backends.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// ErrNotFound is returned when a list id has no record.
var ErrNotFound = errors.New("prompt list not found")

// ListStore is the durable authority for PromptList records.
// Writes replace whole records; the last writer wins.
type ListStore interface {
	GetAll(ctx context.Context) ([]domain.PromptList, error)
	Get(ctx context.Context, id string) (domain.PromptList, error)
	Insert(ctx context.Context, l domain.PromptList) error
	Update(ctx context.Context, l domain.PromptList) error
	Delete(ctx context.Context, id string) error

	// Subscribe emits a full snapshot on subscription and after every change
	// until ctx is done. Slow subscribers only ever see the latest snapshot.
	Subscribe(ctx context.Context) (<-chan []domain.PromptList, error)
}

// SettingsStore persists user settings.
type SettingsStore interface {
	// DelaySeconds reports ok=false when the user never set a delay.
	DelaySeconds(ctx context.Context) (seconds int, ok bool, err error)
	SetDelaySeconds(ctx context.Context, seconds int) error
}

// CooldownStore persists per-list cooldown slots.
type CooldownStore interface {
	domain.CooldownSlot

	// CooldownListIDs returns the ids that currently hold a slot.
	CooldownListIDs(ctx context.Context) ([]string, error)
}

// Backend is everything a storage backend provides.
type Backend interface {
	ListStore
	SettingsStore
	CooldownStore

	Ping(ctx context.Context) error
	Close() error
}
