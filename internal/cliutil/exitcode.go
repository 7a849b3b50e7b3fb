// Package cliutil holds the CLI-layer glue shared by every subcommand:
// exit code mapping and TTY-aware progress reporting.
package cliutil

import (
	"errors"

	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/source"
)

// Exit codes per spec.md §6.1/§7: 0 success, 1 user error, 2 data error,
// 3 I/O error, 130 cancelled by signal.
const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitDataError = 2
	ExitIOError   = 3
	ExitCancelled = 130
)

// ExitCode classifies err into the exit code the CLI should return. A nil
// err always maps to ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cancelled *pipeline.CancelledError
	if errors.As(err, &cancelled) {
		return ExitCancelled
	}

	var inputErr *pipeline.InputError
	var ioErr *source.IOError
	var codecErr *source.CodecError
	switch {
	case errors.As(err, &inputErr), errors.As(err, &ioErr), errors.As(err, &codecErr):
		return ExitIOError
	}

	var tokErr *pipeline.TokenizationError
	var rowErr *pipeline.RowError
	var integrityErr *pipeline.IntegrityError
	var warning pipeline.Warning
	switch {
	case errors.As(err, &tokErr), errors.As(err, &rowErr), errors.As(err, &integrityErr), errors.As(err, &warning):
		return ExitDataError
	}

	return ExitUserError
}
