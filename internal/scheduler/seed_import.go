package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/service"
	"github.com/MrSnakeDoc/dispenser/internal/sources/seed"
)

// ListImporter upserts lists matched by name.
type ListImporter interface {
	UpsertByName(ctx context.Context, lists []domain.PromptList) (service.ImportStats, error)
}

// SeedImporter imports the seed file at start and whenever a reload is
// triggered.
type SeedImporter struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	importer      ListImporter
	logger        logger.Logger
	stopOnce      sync.Once
	stopCh        chan struct{}
	manualTrigger <-chan struct{}
}

// NewSeedImporter creates a new seed importer
func NewSeedImporter(
	seedFile string,
	importer ListImporter,
	log logger.Logger,
	manualTrigger <-chan struct{},
) *SeedImporter {
	return &SeedImporter{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		importer:      importer,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then listens for manual triggers.
func (si *SeedImporter) Start(ctx context.Context) error {
	// Load immediately on start
	if err := si.Import(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	go func() {
		for {
			select {
			case <-si.manualTrigger:
				si.logger.Info("manual seed reload triggered")
				if err := si.Import(ctx); err != nil {
					si.logger.Error("failed to import seed file",
						logger.Error(err))
				}
			case <-si.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (si *SeedImporter) Stop() {
	si.stopOnce.Do(func() { close(si.stopCh) })
}

// Import loads the seed file and upserts its lists. Entries that fail
// mapping are logged and skipped.
func (si *SeedImporter) Import(ctx context.Context) error {
	si.logger.Info("importing seed file",
		logger.String("path", si.loader.Path()))

	file, err := si.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	lists, err := si.mapper.MapLists(file)
	if err != nil {
		si.logger.Warn("skipped invalid seed entries",
			logger.Error(err))
	}

	stats, err := si.importer.UpsertByName(ctx, lists)
	if err != nil {
		return fmt.Errorf("failed to import lists: %w", err)
	}

	si.logger.Info("seed file imported",
		logger.Int("created", stats.Created),
		logger.Int("updated", stats.Updated),
		logger.Int("unchanged", stats.Unchanged))
	return nil
}
