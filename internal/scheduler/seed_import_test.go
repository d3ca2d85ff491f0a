package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/service"
)

type recordingImporter struct {
	mu    sync.Mutex
	calls [][]domain.PromptList
}

func (r *recordingImporter) UpsertByName(_ context.Context, lists []domain.PromptList) (service.ImportStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, lists)
	return service.ImportStats{Created: len(lists)}, nil
}

func (r *recordingImporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create seed file: %v", err)
	}
	return path
}

func TestSeedImporter_Import(t *testing.T) {
	path := writeSeedFile(t, `lists:
  - name: Warmups
    prompts: [A, B]
  - name: ""
    prompts: [skipped]
`)
	imp := &recordingImporter{}
	si := NewSeedImporter(path, imp, logger.NewNop(), nil)

	if err := si.Import(context.Background()); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imp.count() != 1 {
		t.Fatalf("UpsertByName() calls = %v, want 1", imp.count())
	}
	lists := imp.calls[0]
	if len(lists) != 1 || lists[0].Name != "Warmups" {
		t.Errorf("imported lists = %+v, want only Warmups", lists)
	}
}

func TestSeedImporter_StartFailsOnMissingFile(t *testing.T) {
	si := NewSeedImporter(filepath.Join(t.TempDir(), "missing.yaml"), &recordingImporter{}, logger.NewNop(), nil)

	if err := si.Start(context.Background()); err == nil {
		t.Error("Start() expected error for missing seed file, got nil")
	}
}

func TestSeedImporter_ManualTrigger(t *testing.T) {
	path := writeSeedFile(t, "lists:\n  - name: A\n    prompts: [x]\n")
	imp := &recordingImporter{}
	trigger := make(chan struct{}, 1)
	si := NewSeedImporter(path, imp, logger.NewNop(), trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := si.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer si.Stop()

	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for imp.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("UpsertByName() calls = %v, want 2", imp.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
