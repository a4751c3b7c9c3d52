package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/infra/journal"
	"github.com/kilianp07/timetable/infra/store"
)

type Config struct {
	School  SchoolConfig   `json:"school"`
	Engine  EngineConfig   `json:"engine"`
	API     APIConfig      `json:"api"`
	Store   store.Config   `json:"store"`
	Journal journal.Config `json:"journal"`
	Logging LoggingConfig  `json:"logging"`
	Metrics metrics.Config `json:"metrics"`
	Sentry  SentryConfig   `json:"sentry"`
}

// Load reads a YAML or JSON file, applies K_ environment overrides, fills
// defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides: K_STORE__BACKEND sets store.backend.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if cfg.School.Path != "" && !filepath.IsAbs(cfg.School.Path) {
		cfg.School.Path = filepath.Join(filepath.Dir(path), cfg.School.Path)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.API.SetDefaults()
	c.Store.SetDefaults()
	c.Journal.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	for _, v := range []interface{ Validate() error }{c.School, c.Engine, c.API, c.Store, c.Journal, c.Logging, c.Metrics, c.Sentry} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
