// Package cleanup closes the endpoints of a copy exactly once, whichever way
// the copy ends.
package cleanup

import (
	"io"
	"log/slog"
	"sync"
)

var logger = slog.Default()

// SetLogger overrides the cleanup logger (useful for CLI configured logging).
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

type entry struct {
	name   string
	closer io.Closer
}

// Tracker tracks resources that must be closed before the process exits.
type Tracker struct {
	entries []entry
	mu      sync.Mutex
}

// NewTracker creates a new cleanup tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Register adds a closer under a display name. Closers run in reverse
// registration order.
func (t *Tracker) Register(name string, c io.Closer) {
	if c == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry{name: name, closer: c})
}

// Cleanup closes every registered resource and returns the first error.
// Later calls are no-ops.
func (t *Tracker) Cleanup() error {
	t.mu.Lock()
	entries := t.entries
	t.entries = nil
	t.mu.Unlock()

	var first error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.closer.Close(); err != nil {
			logger.Warn("close_failed", "resource", e.name, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
