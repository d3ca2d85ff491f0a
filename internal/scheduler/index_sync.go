package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/index"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
)

// ListSource streams list snapshots.
type ListSource interface {
	Subscribe(ctx context.Context) (<-chan []domain.PromptList, error)
}

// IndexSyncer keeps the in-memory index in step with the store.
type IndexSyncer struct {
	source ListSource
	index  *index.ListIndex
	logger logger.Logger
	now    func() time.Time
}

// NewIndexSyncer creates a new index syncer
func NewIndexSyncer(source ListSource, idx *index.ListIndex, log logger.Logger) *IndexSyncer {
	return &IndexSyncer{
		source: source,
		index:  idx,
		logger: log,
		now:    time.Now,
	}
}

// Start subscribes, waits for the initial snapshot, then applies every
// following snapshot in the background until ctx ends.
func (is *IndexSyncer) Start(ctx context.Context) error {
	snapshots, err := is.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to lists: %w", err)
	}

	select {
	case lists, ok := <-snapshots:
		if !ok {
			return fmt.Errorf("list stream closed before initial snapshot")
		}
		is.apply(lists)
		is.logger.Info("synced lists into memory",
			logger.Int("count", len(lists)))
	case <-ctx.Done():
		return ctx.Err()
	}

	go func() {
		for lists := range snapshots {
			is.apply(lists)
		}
		is.logger.Debug("list stream closed")
	}()

	return nil
}

func (is *IndexSyncer) apply(lists []domain.PromptList) {
	is.index.Replace(lists, is.now())
	is.logger.Debug("list index updated",
		logger.Int("count", len(lists)))
}
