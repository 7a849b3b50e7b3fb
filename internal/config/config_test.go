package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlsplitter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenant_column: org_id\nmax_pk_entries: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "org_id", cfg.TenantColumn)
	assert.Equal(t, 10, cfg.MaxPkEntries)
	assert.Contains(t, cfg.JunctionTimestampCols, "created_at")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10_000_000, cfg.MaxPkEntries)
}
