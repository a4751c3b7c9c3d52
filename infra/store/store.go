// Package store provides the durable grid.Store backends: SQLite through
// database/sql and PostgreSQL through gorm. Backends register with a factory
// registry and are selected by name from configuration.
package store

import (
	"fmt"

	"github.com/kilianp07/timetable/core/factory"
	"github.com/kilianp07/timetable/core/grid"
)

// Config selects the store backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend" koanf:"backend"`
	Path    string `json:"path" yaml:"path" koanf:"path"`
	DSN     string `json:"dsn" yaml:"dsn" koanf:"dsn"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "data/timetable.db"
	}
}

// Validate checks the backend and its required settings.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory":
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("store.path required for sqlite")
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("store.dsn required for postgres")
		}
	default:
		return fmt.Errorf("store.backend: unsupported %q (known: %v)", c.Backend, registry.Names())
	}
	return nil
}

type backendConf struct {
	Path string `json:"path"`
	DSN  string `json:"dsn"`
}

var registry = factory.NewRegistry[grid.Store]()

func init() {
	_ = registry.Register("memory", func(map[string]any) (grid.Store, error) {
		return grid.NewMemoryStore(), nil
	})
	_ = registry.Register("sqlite", func(m map[string]any) (grid.Store, error) {
		var c backendConf
		if err := factory.Decode(m, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
	_ = registry.Register("postgres", func(m map[string]any) (grid.Store, error) {
		var c backendConf
		if err := factory.Decode(m, &c); err != nil {
			return nil, err
		}
		return NewPostgresStore(c.DSN)
	})
}

// Open constructs the configured backend.
func Open(c Config) (grid.Store, error) {
	return registry.Create(factory.ModuleConfig{
		Type: c.Backend,
		Conf: map[string]any{"path": c.Path, "dsn": c.DSN},
	})
}
