package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

// warningRingSize bounds how many individual warnings are retained; beyond
// this, counts still increment but entries are elided (spec.md §7).
const warningRingSize = 1000

// WarningSink collects warnings in a bounded ring plus per-code counts.
type WarningSink struct {
	mu      sync.Mutex
	ring    []Warning
	counts  map[WarningCode]int
}

// NewWarningSink returns an empty sink ready for concurrent use.
func NewWarningSink() *WarningSink {
	return &WarningSink{counts: make(map[WarningCode]int)}
}

// Add records w, eliding storage (but not counting) past the ring size.
func (s *WarningSink) Add(w Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[w.Code]++
	if len(s.ring) < warningRingSize {
		s.ring = append(s.ring, w)
	}
}

// Drain returns a snapshot of the retained warnings.
func (s *WarningSink) Drain() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.ring))
	copy(out, s.ring)
	return out
}

// Counts returns per-code totals, including warnings elided from the ring.
func (s *WarningSink) Counts() map[WarningCode]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[WarningCode]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of warnings observed, ring-bounded or not.
func (s *WarningSink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, v := range s.counts {
		total += v
	}
	return total
}

// Context is threaded through a single CLI invocation instead of relying on
// module-level mutable state (spec.md §9's "global configuration" note).
type Context struct {
	Dialect    dialect.Dialect
	Strict     bool
	Warnings   *WarningSink
	cancelled  atomic.Bool
}

// NewContext builds a Context for d, with Strict controlling whether
// Warn also returns each warning as an error for the caller to treat as
// fatal.
func NewContext(d dialect.Dialect, strict bool) *Context {
	return &Context{Dialect: d, Strict: strict, Warnings: NewWarningSink()}
}

// Cancel requests cooperative cancellation; observed between statements.
func (c *Context) Cancel() { c.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (c *Context) Cancelled() bool { return c.cancelled.Load() }

// Warn records w. Under Strict, it is returned as an error for the caller
// to treat as fatal instead of merely recording it.
func (c *Context) Warn(w Warning) error {
	c.Warnings.Add(w)
	if c.Strict {
		return w
	}
	return nil
}
