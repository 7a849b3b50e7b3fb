// Package sample implements the sample command: selecting a subset of
// rows from a root table and pulling in every row transitively required
// to keep referential integrity, per spec.md §4.8's FK-aware sampling.
package sample

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// PkTuple is a composite primary key value, hashed for set membership.
type PkTuple struct {
	hash uint64
	text string // retained for debugging/collision audit, not for lookup
}

// NewPkTuple builds a PkTuple from a row's primary key column Values, in
// declared primary-key column order.
func NewPkTuple(vals []row.Value) PkTuple {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(valueKeyText(v))
	}
	text := b.String()
	return PkTuple{hash: xxhash.Sum64String(text), text: text}
}

// Hash exposes the tuple's internal identity hash for callers (such as
// diffcmd) that need to key their own maps by PkTuple without re-deriving
// it from raw column values.
func (t PkTuple) Hash() uint64 { return t.hash }

func valueKeyText(v row.Value) string {
	if v.IsNull() {
		return "\x00"
	}
	switch v.Kind {
	case row.Integer, row.BigInteger:
		if n, ok := v.AsInt64(); ok {
			return strconv.FormatInt(n, 10)
		}
		return v.Text
	default:
		return v.Text
	}
}

// PkSet is a concurrency-safe set of PkTuples for one table, used to track
// which rows have already been pulled into the sample so a row reachable
// via two different FK paths is only emitted once.
type PkSet struct {
	mu      sync.Mutex
	entries map[uint64]struct{}
	maxSize int
	dropped int
}

// NewPkSet returns an empty set capped at maxPkEntries (spec.md §9's
// single global cap; 0 means unbounded).
func NewPkSet(maxPkEntries int) *PkSet {
	return &PkSet{entries: make(map[uint64]struct{}), maxSize: maxPkEntries}
}

// Add reports whether t was newly inserted (false if already present, or
// if the set is at its cap and t was dropped).
func (s *PkSet) Add(t PkTuple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[t.hash]; ok {
		return false
	}
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.dropped++
		return false
	}
	s.entries[t.hash] = struct{}{}
	return true
}

// Contains reports whether t is present, without inserting it.
func (s *PkSet) Contains(t PkTuple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[t.hash]
	return ok
}

// Len returns the number of entries currently held.
func (s *PkSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Dropped returns how many Add calls were rejected due to the cap.
func (s *PkSet) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
