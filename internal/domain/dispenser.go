package domain

import (
	"math/rand/v2"
	"slices"
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

// Action names the operation that produced an Outcome.
type Action string

const (
	ActionDispense     Action = "dispense"
	ActionSkipForward  Action = "skip_forward"
	ActionSkipBackward Action = "skip_backward"
	ActionReset        Action = "reset"
)

// Outcome is the result of a Dispenser operation.
//
// CopyToClipboard and StartCooldown tell the caller which side effects to
// perform once List has been persisted.
type Outcome struct {
	Action          Action
	List            PromptList
	Prompt          string
	CopyToClipboard bool
	StartCooldown   bool
}

// Dispenser selects prompts from a PromptList. It holds no state besides its
// random source.
type Dispenser struct {
	picker Picker
}

// NewDispenser creates a Dispenser. A nil picker uses the global source.
func NewDispenser(picker Picker) *Dispenser {
	if picker == nil {
		picker = globalPicker{}
	}
	return &Dispenser{picker: picker}
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// Available returns the entries of AllPrompts not yet dispensed, in authoring order.
//
// Used prompts are matched by value with multiplicity: each entry in
// UsedPrompts consumes one equal-valued entry of AllPrompts, so a duplicated
// prompt stays available until every copy has been dispensed. Used entries no
// longer present in AllPrompts are ignored.
func Available(l PromptList) []string {
	used := make(map[string]int, len(l.UsedPrompts))
	for _, p := range l.UsedPrompts {
		used[p]++
	}

	available := make([]string, 0, len(l.AllPrompts))
	for _, p := range l.AllPrompts {
		if used[p] > 0 {
			used[p]--
			continue
		}
		available = append(available, p)
	}
	return available
}

// Dispense picks an available prompt uniformly at random and marks it used.
// The caller copies the prompt out and starts a cooldown.
func (d *Dispenser) Dispense(l PromptList) (Outcome, error) {
	out, err := d.pick(l)
	if err != nil {
		return Outcome{}, err
	}
	out.Action = ActionDispense
	out.CopyToClipboard = true
	out.StartCooldown = true
	return out, nil
}

// SkipForward marks a random available prompt used without any side effect.
func (d *Dispenser) SkipForward(l PromptList) (Outcome, error) {
	out, err := d.pick(l)
	if err != nil {
		return Outcome{}, err
	}
	out.Action = ActionSkipForward
	return out, nil
}

// SkipBackward undoes the most recent dispense and returns the restored prompt.
func (d *Dispenser) SkipBackward(l PromptList) (Outcome, error) {
	if len(l.UsedPrompts) == 0 {
		return Outcome{}, &NoHistoryError{ListID: l.ID}
	}

	next := l.Clone()
	last := next.UsedPrompts[len(next.UsedPrompts)-1]
	next.UsedPrompts = next.UsedPrompts[:len(next.UsedPrompts)-1]

	return Outcome{
		Action: ActionSkipBackward,
		List:   next,
		Prompt: last,
	}, nil
}

// Reset clears the dispense history.
func (d *Dispenser) Reset(l PromptList) Outcome {
	next := l.Clone()
	next.UsedPrompts = []string{}
	return Outcome{Action: ActionReset, List: next}
}

func (d *Dispenser) pick(l PromptList) (Outcome, error) {
	available := Available(l)
	if len(available) == 0 {
		return Outcome{}, &ExhaustedError{ListID: l.ID}
	}

	prompt := available[d.picker.IntN(len(available))]

	next := l.Clone()
	next.UsedPrompts = append(slices.Clip(next.UsedPrompts), prompt)

	return Outcome{List: next, Prompt: prompt}, nil
}
