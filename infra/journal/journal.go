// Package journal provides the durable journal backends: a rotating JSONL
// file and a SQLite table.
package journal

import (
	"fmt"
	"time"

	corejournal "github.com/kilianp07/timetable/core/journal"
)

// Config selects and tunes the journal backend.
type Config struct {
	Backend    string `json:"backend" yaml:"backend" koanf:"backend"`
	Path       string `json:"path" yaml:"path" koanf:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" koanf:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" koanf:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" koanf:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "data/journal.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "memory", "none":
		return nil
	}
	return fmt.Errorf("journal.backend: unsupported %q", c.Backend)
}

// Open returns the configured store, or nil for backend "none".
func Open(c Config) (corejournal.Store, error) {
	switch c.Backend {
	case "jsonl":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "memory":
		return corejournal.NewMemoryStore(), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("journal backend %q", c.Backend)
}

func unixNano(ns int64) time.Time { return time.Unix(0, ns).UTC() }
