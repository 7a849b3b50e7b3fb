// Package report defines the structured run summary every subcommand
// emits alongside its primary output, serialized as YAML by default.
package report

import (
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sqlsplitter/sqlsplitter/internal/partition"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

// TableReport summarizes one table's contribution to a run.
type TableReport struct {
	Table      string `yaml:"table"`
	Statements int    `yaml:"statements"`
	Bytes      int64  `yaml:"bytes"`
	Role       string `yaml:"role,omitempty"`
}

// Report is the top-level run summary, written to <outputDir>/report.yaml
// (or stdout for commands without a directory output) on completion.
type Report struct {
	Command      string             `yaml:"command"`
	Dialect      string             `yaml:"dialect"`
	StartedAt    time.Time          `yaml:"started_at"`
	FinishedAt   time.Time          `yaml:"finished_at"`
	DurationMs   int64              `yaml:"duration_ms"`
	Tables       []TableReport      `yaml:"tables"`
	WarningCount int                `yaml:"warning_count"`
	WarningsByCode map[string]int   `yaml:"warnings_by_code,omitempty"`
	Truncated    bool               `yaml:"truncated_warnings,omitempty"`
	Strict       bool               `yaml:"strict"`
	ExitCode     int                `yaml:"exit_code"`
}

// FromSinkStats converts partitioner output into the report's Tables
// field, merging in per-table tenant roles when roles is non-nil.
func FromSinkStats(stats []partition.SinkStats, roles map[string]string) []TableReport {
	out := make([]TableReport, 0, len(stats))
	for _, s := range stats {
		tr := TableReport{Table: s.Table, Statements: s.Statements, Bytes: s.Bytes}
		if roles != nil {
			tr.Role = roles[s.Table]
		}
		out = append(out, tr)
	}
	return out
}

// New builds a Report shell, to be filled in as the command runs and
// finalized via Finish.
func New(command, dialectName string, strict bool) *Report {
	return &Report{Command: command, Dialect: dialectName, StartedAt: now(), Strict: strict}
}

// Finish stamps completion time/duration and folds in the warning sink's
// totals, returning the report ready for serialization.
func (r *Report) Finish(sink *pipeline.WarningSink, exitCode int) *Report {
	r.FinishedAt = now()
	r.DurationMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	if sink != nil {
		r.WarningCount = sink.Total()
		counts := sink.Counts()
		if len(counts) > 0 {
			r.WarningsByCode = make(map[string]int, len(counts))
			for code, n := range counts {
				r.WarningsByCode[string(code)] = n
			}
		}
		r.Truncated = sink.Total() > len(sink.Drain())
	}
	r.ExitCode = exitCode
	return r
}

// YAML serializes the report.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// now is a thin indirection so tests can stub wall-clock time if needed;
// production code always calls time.Now directly through it.
var now = time.Now
