// Package partition implements C8: a per-table streaming partitioner that
// fans statements out to one sink per table, buffering writes and closing
// sinks in a deterministic order once the source is exhausted.
package partition

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"
)

const (
	// writeBufferSize is the per-sink bufio.Writer buffer, per spec.md §5.
	writeBufferSize = 256 * 1024
	// pendingQueueSize is not referenced: a sink has no pending-statement
	// queue, and Write copies each statement straight into the sink's
	// bufio.Writer under the sink's mutex.
	pendingQueueSize = 100
)

// SinkOpener creates the io.WriteCloser a given table's statements should
// be written to; callers supply one backed by local files, an S3 client, or
// an in-memory buffer for tests.
type SinkOpener func(table string) (io.WriteCloser, error)

// sink wraps one table's destination writer with its own buffer and mutex,
// so concurrent Write calls for different tables never block one another.
type sink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	wc  io.WriteCloser
	n   int
	byt int64
}

// Partitioner routes statement bytes to per-table sinks, opening each sink
// lazily on first write.
type Partitioner struct {
	open  SinkOpener
	mu    sync.Mutex
	sinks map[string]*sink
	order []string
}

// New returns a Partitioner that opens sinks via open.
func New(open SinkOpener) *Partitioner {
	return &Partitioner{open: open, sinks: make(map[string]*sink)}
}

// Write appends b (expected to already end with the statement's
// terminator and a trailing newline) to the sink for table, opening it if
// this is the first write seen for that table.
func (p *Partitioner) Write(table string, b []byte) error {
	s, err := p.sinkFor(table)
	if err != nil {
		return fmt.Errorf("open sink for table %q: %w", table, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(b)
	s.byt += int64(n)
	s.n++
	if err != nil {
		return fmt.Errorf("write to table %q: %w", table, err)
	}
	return nil
}

func (p *Partitioner) sinkFor(table string) (*sink, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sinks[table]; ok {
		return s, nil
	}
	wc, err := p.open(table)
	if err != nil {
		return nil, err
	}
	s := &sink{wc: wc, w: bufio.NewWriterSize(wc, writeBufferSize)}
	p.sinks[table] = s
	p.order = append(p.order, table)
	return s, nil
}

// SinkStats reports how much a single sink wrote, for the final report.
type SinkStats struct {
	Table      string
	Statements int
	Bytes      int64
}

// Close flushes and closes every opened sink in deterministic alphabetical
// order by table name, per spec.md §5's shutdown sequencing, returning
// per-table stats and the first error encountered (continuing to close the
// rest regardless).
func (p *Partitioner) Close() ([]SinkStats, error) {
	p.mu.Lock()
	tables := append([]string(nil), p.order...)
	p.mu.Unlock()
	sort.Strings(tables)

	var stats []SinkStats
	var firstErr error
	for _, table := range tables {
		p.mu.Lock()
		s := p.sinks[table]
		p.mu.Unlock()

		s.mu.Lock()
		ferr := s.w.Flush()
		cerr := s.wc.Close()
		stats = append(stats, SinkStats{Table: table, Statements: s.n, Bytes: s.byt})
		s.mu.Unlock()

		if firstErr == nil {
			if ferr != nil {
				firstErr = fmt.Errorf("flush table %q: %w", table, ferr)
			} else if cerr != nil {
				firstErr = fmt.Errorf("close table %q: %w", table, cerr)
			}
		}
	}
	return stats, firstErr
}
