package config

import (
	"fmt"

	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/model"
)

// SchoolConfig points at the school description file.
type SchoolConfig struct {
	Path string `json:"path"`
}

// Validate requires a path.
func (c SchoolConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("school.path is required")
	}
	return nil
}

// EngineConfig tunes the scheduling engines.
type EngineConfig struct {
	// MaxWeeklyPeriods applies when the school file sets no cap.
	MaxWeeklyPeriods int `json:"max_weekly_periods"`
	// DefaultMode is the session mode at start-up: "draft" or "live".
	DefaultMode string `json:"default_mode"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.MaxWeeklyPeriods == 0 {
		c.MaxWeeklyPeriods = directory.DefaultMaxWeeklyPeriods
	}
	if c.DefaultMode == "" {
		c.DefaultMode = model.ModeDraft.String()
	}
}

// Validate checks the cap and mode.
func (c EngineConfig) Validate() error {
	if c.MaxWeeklyPeriods < 1 {
		return fmt.Errorf("engine.max_weekly_periods must be positive")
	}
	if _, ok := model.ParseMode(c.DefaultMode); !ok {
		return fmt.Errorf("engine.default_mode: unknown mode %q", c.DefaultMode)
	}
	return nil
}

// Mode returns the parsed default mode.
func (c EngineConfig) Mode() model.Mode {
	m, _ := model.ParseMode(c.DefaultMode)
	return m
}

// APIConfig configures the read-only HTTP API served by `serve`.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token guards /api/journal when non-empty.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Validate accepts any address; net.Listen reports bad ones.
func (c APIConfig) Validate() error { return nil }
