package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// ListIndex keeps counters over the latest snapshot of every list.
// It is fed by the store's change stream; the store stays the authority
// for reads, the index answers infra and readiness checks without a query.
type ListIndex struct {
	mu         sync.RWMutex
	lists      int
	prompts    int
	used       int
	exhausted  int
	lastUpdate time.Time
}

// NewListIndex creates an empty index.
func NewListIndex() *ListIndex {
	return &ListIndex{}
}

// Replace swaps the whole snapshot.
func (idx *ListIndex) Replace(lists []domain.PromptList, at time.Time) {
	var prompts, used, exhausted int
	for _, l := range lists {
		prompts += len(l.AllPrompts)
		used += len(l.UsedPrompts)
		if l.Remaining() == 0 {
			exhausted++
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.lists = len(lists)
	idx.prompts = prompts
	idx.used = used
	idx.exhausted = exhausted
	idx.lastUpdate = at
}

// Count returns the number of lists.
func (idx *ListIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lists
}

// PromptCounts returns the total number of prompts and of used prompts.
func (idx *ListIndex) PromptCounts() (total, used int) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.prompts, idx.used
}

// Exhausted returns the number of lists with no prompt left.
func (idx *ListIndex) Exhausted() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.exhausted
}

// LastUpdate returns when the snapshot was last replaced.
func (idx *ListIndex) LastUpdate() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastUpdate
}
