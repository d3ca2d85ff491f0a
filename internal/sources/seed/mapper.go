package seed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
)

// Mapper converts seed entries to prompt lists ready for import.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapLists returns one list per entry, in file order. Only Name and
// AllPrompts are set; ids and timestamps are assigned on import.
//
// Invalid entries are skipped and reported together in the returned error,
// so valid entries still import.
func (m *Mapper) MapLists(f File) ([]domain.PromptList, error) {
	lists := make([]domain.PromptList, 0, len(f.Lists))
	seen := make(map[string]int, len(f.Lists))
	var errs []error

	for i, entry := range f.Lists {
		name := strings.TrimSpace(entry.Name)
		prompts := append(cleanPrompts(entry.Prompts), domain.ParsePrompts(entry.Text)...)

		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("list #%d: name is empty", i+1))
			continue
		case len(prompts) == 0:
			errs = append(errs, fmt.Errorf("list %q: no prompts", name))
			continue
		}

		// A repeated name extends the earlier entry.
		if at, ok := seen[name]; ok {
			lists[at].AllPrompts = append(lists[at].AllPrompts, prompts...)
			continue
		}

		seen[name] = len(lists)
		lists = append(lists, domain.PromptList{Name: name, AllPrompts: prompts})
	}

	return lists, errors.Join(errs...)
}

func cleanPrompts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
