package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

func TestFinishFoldsWarningCounts(t *testing.T) {
	sink := pipeline.NewWarningSink()
	sink.Add(pipeline.Warning{Code: pipeline.WarnUnresolvedFK, Table: "orders"})
	sink.Add(pipeline.Warning{Code: pipeline.WarnUnresolvedFK, Table: "orders"})

	r := New("split", "mysql", false)
	r.Finish(sink, 0)

	assert.Equal(t, 2, r.WarningCount)
	assert.Equal(t, 2, r.WarningsByCode[string(pipeline.WarnUnresolvedFK)])
	assert.False(t, r.Truncated)

	out, err := r.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "command: split")
}
