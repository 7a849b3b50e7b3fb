package cliutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitCancelled, ExitCode(&pipeline.CancelledError{}))
	assert.Equal(t, ExitIOError, ExitCode(&pipeline.InputError{Err: errors.New("boom")}))
	assert.Equal(t, ExitDataError, ExitCode(&pipeline.RowError{Offset: 1, Reason: "x"}))
	assert.Equal(t, ExitDataError, ExitCode(pipeline.Warning{Code: pipeline.WarnMalformedRow}))
	assert.Equal(t, ExitUserError, ExitCode(errors.New("bad flag")))
}
