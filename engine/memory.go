package engine

import (
	"context"
	"sync"
)

// MemoryTable is a NounTable backed by two plain maps, guarded by a
// RWMutex. It is the engine wired in by cmd/mpp-server when no
// --dbconfigfilepath is given, and the one the engine package's own
// tests use; a fresh one starts out with no nouns recorded at all.
type MemoryTable struct {
	mu sync.RWMutex
	// plural maps a singular form to every plural form recorded for it.
	plural map[string][]string
	// singular maps a plural form back to every singular form recorded
	// for it. Kept as a separate index rather than derived from plural
	// on each lookup.
	singular map[string][]string
}

// NewMemoryTable builds an empty MemoryTable.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		plural:   make(map[string][]string),
		singular: make(map[string][]string),
	}
}

// Add records noun pairings: singular is known to pluralise to every
// form in plurals. Both indexes are updated so IsSingular/Plurals/
// Singulars stay consistent regardless of which form is looked up.
func (t *MemoryTable) Add(singular string, plurals ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plural[singular] = append(t.plural[singular], plurals...)
	for _, p := range plurals {
		t.singular[p] = append(t.singular[p], singular)
	}
}

func (t *MemoryTable) IsSingular(_ context.Context, noun string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.plural[noun]; ok {
		return true, nil
	}
	// A noun neither side of the table has seen falls back to treating
	// it as singular, matching the original's isSingular() heuristic
	// default (no recorded plural implies nothing to decline it from).
	_, isPlural := t.singular[noun]
	return !isPlural, nil
}

func (t *MemoryTable) Plurals(_ context.Context, singular string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	forms := t.plural[singular]
	out := make([]string, len(forms))
	copy(out, forms)
	return out, nil
}

func (t *MemoryTable) Singulars(_ context.Context, plural string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	forms := t.singular[plural]
	out := make([]string, len(forms))
	copy(out, forms)
	return out, nil
}
