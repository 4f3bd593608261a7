// Package history implements the shell's command history: a bounded,
// consecutive-deduplicated in-memory log that is flushed to disk as a
// single atomic rewrite.
package history

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"golang.org/x/sync/errgroup"
)

// Manager owns the in-memory history log plus its on-disk persistence
// path. Every method takes an internal mutex, so a Manager may be used
// from several goroutines.
type Manager struct {
	mu      sync.Mutex
	entries []string
	max     int
	path    string
}

// New builds a Manager bounded to max entries (spec.md §6 `history_max`,
// a non-negative integer; max=0 keeps no history at all) persisting to
// path.
func New(path string, max int) *Manager {
	return &Manager{path: path, max: max}
}

// Load populates the in-memory log from path, one entry per line, in
// insertion order. A missing file is not an error: a fresh shell simply
// starts with empty history.
func (m *Manager) Load() error {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("history: load %s: %w", m.path, err)
	}
	defer f.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.appendLocked(sc.Text())
	}
	return sc.Err()
}

// Add appends an entry, silently collapsing it into a no-op when it is
// identical to the immediately preceding entry (spec.md §8: "history.add(x)
// twice in a row yields a single entry").
func (m *Manager) Add(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(line)
}

func (m *Manager) appendLocked(line string) {
	if n := len(m.entries); n > 0 && m.entries[n-1] == line {
		return
	}
	m.entries = append(m.entries, line)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
}

// Entries returns the last n entries (all of them if n <= 0), oldest
// first, as plain strings; the `history` built-in adds the numbering.
func (m *Manager) Entries(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]string, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

// Len reports the total number of entries currently held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Clear empties the in-memory log and reports how many entries were
// dropped, for the `history -c` built-in.
func (m *Manager) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = nil
	return n
}

// Flush rewrites the history file atomically with the current log, one
// entry per line. It uses renameio so a crash mid-write never leaves a
// truncated file behind — the old file, if any, is left untouched until
// the new one is fully written and renamed into place.
//
// If ctx is already done, Flush returns ctx.Err() without writing. Under
// FlushAll that happens when another function in the group has already
// failed.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	data := []byte(strings.Join(m.entries, "\n"))
	if len(m.entries) > 0 {
		data = append(data, '\n')
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := renameio.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("history: flush %s: %w", m.path, err)
	}
	return nil
}

// FlushAll runs every fn concurrently under one errgroup and waits for
// all of them, returning the first error encountered; that first error
// also cancels the context the others receive. cmd/tinysh uses it at
// teardown to run Manager.Flush alongside the final newline on stdout.
func FlushAll(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
