// Package config loads the optional YAML configuration file shared
// across sqlsplitter subcommands (redaction rules, the tenant-column
// name, junction-table timestamp allowlist, and the global max-PK-entry
// cap), grounded on the teacher's database.GeneratorConfig loader idiom.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// RedactColumnConfig configures one column's redaction strategy.
type RedactColumnConfig struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	Strategy string `yaml:"strategy"`
	Constant string `yaml:"constant,omitempty"`
	Faker    string `yaml:"faker,omitempty"`
}

// Config is the root of sqlsplitter.yaml.
type Config struct {
	TenantColumn          string               `yaml:"tenant_column,omitempty"`
	JunctionTimestampCols []string             `yaml:"junction_timestamp_columns,omitempty"`
	SystemTables          []string             `yaml:"system_tables,omitempty"`
	MaxPkEntries          int                  `yaml:"max_pk_entries,omitempty"`
	RedactSalt            string               `yaml:"redact_salt,omitempty"`
	RedactColumns         []RedactColumnConfig `yaml:"redact_columns,omitempty"`
	Strict                bool                 `yaml:"strict,omitempty"`
}

// Default returns a Config with spec.md's documented defaults.
func Default() *Config {
	return &Config{
		MaxPkEntries: 10_000_000,
		JunctionTimestampCols: []string{
			"created_at", "updated_at", "deleted_at", "created", "updated", "inserted_at",
		},
	}
}

// Load reads and parses a YAML config file at path, overlaying it onto
// Default() so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// JunctionTimestampAllowlist converts the configured column name list into
// the map shape graph.Classify expects.
func (c *Config) JunctionTimestampAllowlist() map[string]bool {
	m := make(map[string]bool, len(c.JunctionTimestampCols))
	for _, name := range c.JunctionTimestampCols {
		m[name] = true
	}
	return m
}
