// Package clipboard holds the sinks a dispensed prompt is copied to.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Sink accepts plain text.
type Sink interface {
	Write(text string) error
}

// System writes to the desktop clipboard of the machine running the process.
type System struct{}

// NewSystem returns the system sink, or an error when no clipboard utility
// (xclip, xsel, wl-copy, pbcopy, ...) is available.
func NewSystem() (System, error) {
	if clipboard.Unsupported {
		return System{}, fmt.Errorf("system clipboard unsupported on this platform")
	}
	return System{}, nil
}

func (System) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) Write(string) error { return nil }

// Memory keeps the last written text. Used by headless setups and tests.
type Memory struct {
	mu   sync.Mutex
	last string
	n    int
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	m.n++
	return nil
}

// Last returns the most recent text and how many writes happened.
func (m *Memory) Last() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.n
}
