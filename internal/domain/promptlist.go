package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PromptList is one version of a named list of prompts and its dispense history.
//
// Values are never mutated in place: every Dispenser operation returns a new
// version for the caller to persist.
type PromptList struct {
	// ID is assigned at creation and stays stable for the record's lifetime.
	ID string `json:"id"`

	// Name is the non-empty display name.
	Name string `json:"name"`

	// AllPrompts is the full set of prompts, in authoring order.
	AllPrompts []string `json:"allPrompts"`

	// UsedPrompts holds dispensed prompts in dispense order, most recent last.
	// It is the undo stack.
	UsedPrompts []string `json:"usedPrompts"`

	// CreatedAt is the creation instant, immutable after creation.
	CreatedAt time.Time `json:"createdAt"`
}

// promptSeparator matches two or more line breaks, blank lines may hold whitespace.
var promptSeparator = regexp.MustCompile(`(\n\s*){2,}`)

// ParsePrompts splits free text into prompts separated by blank lines.
// Each prompt is trimmed and empty ones are dropped.
func ParsePrompts(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := promptSeparator.Split(text, -1)

	prompts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts
}

// NewPromptList validates name and prompts and builds a fresh list with an
// empty history.
func NewPromptList(name string, prompts []string, now time.Time) (PromptList, error) {
	name, prompts, err := validate(name, prompts)
	if err != nil {
		return PromptList{}, err
	}

	return PromptList{
		ID:          uuid.NewString(),
		Name:        name,
		AllPrompts:  prompts,
		UsedPrompts: []string{},
		CreatedAt:   now,
	}, nil
}

// Edit returns a copy with name and prompts replaced wholesale.
// UsedPrompts is not reconciled: stale entries are ignored by Available.
func (l PromptList) Edit(name string, prompts []string) (PromptList, error) {
	name, prompts, err := validate(name, prompts)
	if err != nil {
		return PromptList{}, err
	}

	out := l.Clone()
	out.Name = name
	out.AllPrompts = prompts
	return out, nil
}

// Clone returns a deep copy of the list.
func (l PromptList) Clone() PromptList {
	out := l
	out.AllPrompts = slices.Clone(l.AllPrompts)
	out.UsedPrompts = slices.Clone(l.UsedPrompts)
	if out.UsedPrompts == nil {
		out.UsedPrompts = []string{}
	}
	return out
}

// Remaining is the number of prompts still available.
func (l PromptList) Remaining() int {
	return len(Available(l))
}

// Summary renders the list line shown in overviews.
func (l PromptList) Summary() string {
	return fmt.Sprintf("%d prompts (%d used)", len(l.AllPrompts), len(l.UsedPrompts))
}

// Status renders the remaining-prompts line shown on the dispenser view.
func (l PromptList) Status() string {
	if n := l.Remaining(); n > 0 {
		return fmt.Sprintf("%d prompts remaining", n)
	}
	return "All prompts used! Reset the list to start over."
}

func validate(name string, prompts []string) (string, []string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, &ValidationError{Field: "name", Reason: "List name cannot be empty"}
	}

	cleaned := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "", nil, &ValidationError{Field: "prompts", Reason: "Add at least one prompt"}
	}

	return name, cleaned, nil
}
