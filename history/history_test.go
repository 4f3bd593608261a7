package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestAddCoalescesConsecutiveDuplicates(t *testing.T) {
	m := New("", 500)
	m.Add("ls")
	m.Add("ls")
	m.Add("pwd")
	if got := m.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestAddBoundedByMax(t *testing.T) {
	m := New("", 2)
	m.Add("a")
	m.Add("b")
	m.Add("c")
	entries := m.Entries(0)
	want := []string{"b", "c"}
	if len(entries) != len(want) {
		t.Fatalf("Entries() = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i], want[i])
		}
	}
}

// TestMaxZeroKeepsNoEntries covers spec.md §6: history_max is a
// non-negative integer, and 0 means the log holds nothing at all, not
// "unbounded" (config/config.go:97 accepts n >= 0; original_source's
// history.rs trims whenever entries.len() > max_len, so max_len = 0
// discards every entry immediately after it's pushed).
func TestMaxZeroKeepsNoEntries(t *testing.T) {
	m := New("", 0)
	m.Add("a")
	m.Add("b")
	if got := m.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	if entries := m.Entries(0); len(entries) != 0 {
		t.Fatalf("Entries() = %v, want empty", entries)
	}
}

func TestEntriesLimitN(t *testing.T) {
	m := New("", 500)
	for _, s := range []string{"a", "b", "c", "d"} {
		m.Add(s)
	}
	got := m.Entries(2)
	want := []string{"c", "d"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Entries(2) = %v, want %v", got, want)
	}
}

func TestClearReportsCountAndEmpties(t *testing.T) {
	m := New("", 500)
	m.Add("a")
	m.Add("b")
	if n := m.Clear(); n != 2 {
		t.Fatalf("Clear() = %d, want 2", n)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", m.Len())
	}
}

func TestFlushAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")

	m := New(path, 500)
	m.Add("echo one")
	m.Add("echo two")
	if err := m.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded := New(path, 500)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.Entries(0)
	want := []string{"echo one", "echo two"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "nope"), 500)
	if err := m.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
}

func TestFlushIsIdempotentWholeFileRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")
	m := New(path, 500)
	m.Add("a")
	if err := m.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("repeated Flush produced different content: %q vs %q", first, second)
	}
}

func TestFlushAllRunsEveryFunction(t *testing.T) {
	calls := 0
	err := FlushAll(context.Background(),
		func(context.Context) error { calls++; return nil },
		func(context.Context) error { calls++; return nil },
	)
	if err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
