// Package strtab implements the grow-only string interning table shared by
// the trace manager: one instance for annotation/value/range/thread names,
// and a second, dedicated instance for custom scope event names.
package strtab

import (
	"sync"

	"github.com/kestrelgfx/tracecore/errs"
)

// NoIndex is the sentinel index meaning "no string". It is emitted verbatim
// in argument slots where a string would otherwise appear.
const NoIndex uint32 = 0xFFFFFFFF

// Table is a thread-safe, append-only mapping from string to dense index.
type Table struct {
	mu      sync.Mutex
	byIndex []string
	byValue map[string]uint32
}

// New returns an empty Table.
func New() *Table {
	return &Table{byValue: make(map[string]uint32)}
}

// Intern returns the existing index for s, or appends s and returns its new
// index.
func (t *Table) Intern(s string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.byValue[s]; ok {
		return idx
	}
	idx := uint32(len(t.byIndex))
	t.byIndex = append(t.byIndex, s)
	t.byValue[s] = idx
	return idx
}

// Get returns the string at index, or ErrOutOfRange if index is out of
// bounds.
func (t *Table) Get(index uint32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index == NoIndex || int(index) >= len(t.byIndex) {
		return "", errs.ErrOutOfRange
	}
	return t.byIndex[index], nil
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byIndex)
}

// Snapshot returns a copy of all interned strings in index order. Intended
// for serialization; callers must not mutate the returned slice's backing
// semantics (it is a fresh copy, safe to hold onto).
func (t *Table) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.byIndex))
	copy(out, t.byIndex)
	return out
}

// View is a per-goroutine cache in front of a shared Table, intended to
// absorb repeated lookups of the same small set of names on the hot path
// (e.g. a recorder re-entering the same scope name every frame).
type View struct {
	table *Table
	cache map[string]uint32
}

// View returns a cache of the given initial capacity in front of t.
func (t *Table) View(initialCacheCapacity int) *View {
	return &View{table: t, cache: make(map[string]uint32, initialCacheCapacity)}
}

// Intern interns s through the view's local cache before falling through to
// the shared table.
func (v *View) Intern(s string) uint32 {
	if idx, ok := v.cache[s]; ok {
		return idx
	}
	idx := v.table.Intern(s)
	v.cache[s] = idx
	return idx
}
