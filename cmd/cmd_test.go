package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/app"
	"github.com/kilianp07/timetable/config"
	"github.com/kilianp07/timetable/core/metrics"
	infralogger "github.com/kilianp07/timetable/infra/logger"
)

func setup(t *testing.T) string {
	t.Helper()
	school, err := filepath.Abs(filepath.Join("..", "app", "testdata", "school.yaml"))
	require.NoError(t, err)
	dir := t.TempDir()
	cfg := "school:\n  path: " + school + "\n" +
		"store:\n  backend: sqlite\n  path: " + filepath.Join(dir, "tt.db") + "\n" +
		"journal:\n  backend: none\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	prev := newService
	newService = func(ctx context.Context, c *config.Config) (*app.Service, error) {
		return app.NewWithDeps(ctx, c, app.Deps{Sink: metrics.NopSink{}, Log: infralogger.NopLogger{}})
	}
	t.Cleanup(func() { newService = prev })
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	modeFlag, clearFirst = "", false
	gridFlags.sections, gridFlags.teacher, gridFlags.day, gridFlags.format = nil, "", "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfg, "--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := Execute()
	return out.String(), err
}

func TestFillPublishGrid(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "fill", "g9")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"grade_id": "g9"`)

	out, err = run(t, cfg, "grid", "--format", "csv")
	require.NoError(t, err, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7, out)
	assert.True(t, strings.HasPrefix(lines[0], "id,day,slot_id"))

	_, err = run(t, cfg, "publish")
	require.NoError(t, err)

	out, err = run(t, cfg, "grid", "-m", "live", "--section", "9a", "--format", "csv")
	require.NoError(t, err, out)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4, out)
}

func TestRejectsBadInput(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "grid", "-m", "staging")
	assert.Error(t, err)

	_, err = run(t, cfg, "swap", "Mon/s1", "--id", "9a", "--kind", "desk")
	assert.Error(t, err)

	_, err = run(t, cfg, "block", "deploy", "pool", "Mon")
	assert.Error(t, err)
}

func TestParseCell(t *testing.T) {
	c, err := parseCell("Tue/s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", c.SlotID)
	assert.Equal(t, "Tuesday", c.Day.String())

	_, err = parseCell("Tue")
	assert.Error(t, err)
}

func TestClearHelpMatchesBehaviour(t *testing.T) {
	assert.NotContains(t, clearCmd.Short, "undated")
	assert.Contains(t, clearCmd.Short, "every entry")
}
