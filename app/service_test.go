package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/config"
	"github.com/kilianp07/timetable/core/grid"
	corejournal "github.com/kilianp07/timetable/core/journal"
	"github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/core/model"
	infralogger "github.com/kilianp07/timetable/infra/logger"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		School: config.SchoolConfig{Path: filepath.Join("testdata", "school.yaml")},
	}
	cfg.Store.Backend = backend
	if backend == "sqlite" {
		cfg.Store.Path = filepath.Join(t.TempDir(), "tt.db")
	}
	cfg.Journal.Backend = "memory"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceFillPublishJournal(t *testing.T) {
	ctx := context.Background()
	jr := corejournal.NewMemoryStore()
	cfg := testConfig(t, "memory")
	svc, err := NewWithDeps(ctx, cfg, Deps{Journal: jr, Sink: metrics.NopSink{}, Log: infralogger.NopLogger{}})
	require.NoError(t, err)

	assert.Equal(t, model.ModeDraft, svc.Mode())
	assert.Equal(t, 35, svc.Dir.MaxWeeklyPeriods(), "engine cap applies when the file sets none")
	require.Len(t, svc.Grid.Assignments(), 3, "assignments seeded from the school file and its blocks")
	require.Len(t, svc.Grid.Blocks(), 1)
	pool, ok := svc.Grid.Assignment("t3", "g9")
	require.True(t, ok, "block teachers get an assignment")
	assert.Equal(t, 1, pool.GroupPeriods)
	assert.Equal(t, 1, svc.Grid.WeeklyLoad("t3"))

	rep, err := svc.AutoFill.Fill(ctx, model.ModeDraft, "g9")
	require.NoError(t, err)
	assert.True(t, rep.Complete(), "skipped: %+v", rep.Skipped)

	res, err := svc.Publisher.Publish(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"9a", "9b"}, res.Sections)
	assert.Equal(t, model.ModeLive, svc.Mode())
	assert.Len(t, svc.Grid.Entries(model.ModeLive, gridAll()), 6)
	assert.Zero(t, svc.Grid.Len(model.ModeDraft))

	require.NoError(t, svc.Close())
	recs, err := jr.Query(ctx, corejournal.Query{})
	require.NoError(t, err)
	var names []string
	for _, r := range recs {
		names = append(names, r.Event)
	}
	assert.Equal(t, []string{"fill", "publish"}, names)
}

func TestServiceReopensSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")
	svc, err := NewWithDeps(ctx, cfg, Deps{Sink: metrics.NopSink{}, Log: infralogger.NopLogger{}})
	require.NoError(t, err)
	_, err = svc.AutoFill.Fill(ctx, model.ModeDraft, "g9")
	require.NoError(t, err)
	drafted := svc.Grid.Len(model.ModeDraft)
	require.NotZero(t, drafted)
	require.NoError(t, svc.Close())

	svc, err = NewWithDeps(ctx, cfg, Deps{Sink: metrics.NopSink{}, Log: infralogger.NopLogger{}})
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Equal(t, drafted, svc.Grid.Len(model.ModeDraft))
	assert.Len(t, svc.Grid.Assignments(), 3, "seeding skipped for a populated store")
}

func TestServiceHandler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "memory")
	cfg.API.Token = "tok"
	monday := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	svc, err := NewWithDeps(ctx, cfg, Deps{
		Journal: corejournal.NewMemoryStore(), Sink: metrics.NopSink{}, Log: infralogger.NopLogger{},
		Now: func() time.Time { return monday },
	})
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()
	for path, want := range map[string]int{
		"/api/grid?mode=draft": http.StatusOK,
		"/api/workload":        http.StatusOK,
		"/api/journal":         http.StatusUnauthorized,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func gridAll() grid.Filter { return grid.Filter{} }
