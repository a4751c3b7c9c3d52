package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/timetable/core/model"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `school:
  path: "school.yaml"
engine:
  max_weekly_periods: 30
  default_mode: "live"
store:
  backend: "postgres"
  dsn: "host=db user=tt"
journal:
  backend: "sqlite"
  path: "journal.db"
logging:
  level: "debug"
metrics:
  prometheus_port: "9100"
  sinks:
    - type: "prometheus"
    - type: "influx"
      conf:
        url: "http://influx:8086"
sentry:
  dsn: "https://key@sentry.example/1"
  traces_sample_rate: 0.2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"school.path", cfg.School.Path, filepath.Join(filepath.Dir(path), "school.yaml")},
		{"engine.max_weekly_periods", cfg.Engine.MaxWeeklyPeriods, 30},
		{"engine.mode", cfg.Engine.Mode(), model.ModeLive},
		{"store.backend", cfg.Store.Backend, "postgres"},
		{"store.dsn", cfg.Store.DSN, "host=db user=tt"},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.max_backups", cfg.Journal.MaxBackups, 5},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"metrics.port", cfg.Metrics.PrometheusPort, "9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.influx.url", cfg.Metrics.Sinks[1].Conf["url"], "http://influx:8086"},
		{"sentry.environment", cfg.Sentry.Environment, "production"},
		{"sentry.rate", cfg.Sentry.TracesSampleRate, 0.2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, "config.json", `{"school": {"path": "/etc/school.yaml"}}`)
	t.Setenv("K_ENGINE__MAX_WEEKLY_PERIODS", "28")
	t.Setenv("K_STORE__BACKEND", "memory")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.School.Path != "/etc/school.yaml" {
		t.Errorf("absolute school path rewritten: %s", cfg.School.Path)
	}
	if cfg.Engine.MaxWeeklyPeriods != 28 {
		t.Errorf("env override ignored: %d", cfg.Engine.MaxWeeklyPeriods)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store backend: %s", cfg.Store.Backend)
	}
	if cfg.Engine.Mode() != model.ModeDraft {
		t.Errorf("default mode: %v", cfg.Engine.Mode())
	}
	if cfg.Journal.Backend != "jsonl" || cfg.Logging.Level != "info" || cfg.Metrics.PrometheusPort != "9090" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing school": `engine: {max_weekly_periods: 30}`,
		"bad mode":       "school: {path: s.yaml}\nengine: {default_mode: archive}",
		"bad store":      "school: {path: s.yaml}\nstore: {backend: mongo}",
		"bad level":      "school: {path: s.yaml}\nlogging: {level: loud}",
		"bad sink":       "school: {path: s.yaml}\nmetrics: {sinks: [{conf: {}}]}",
		"bad sentry":     "school: {path: s.yaml}\nsentry: {traces_sample_rate: 2}",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "c.yaml", data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "c.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
