package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/internal/storetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) grid.Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tt.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tt.db")
	ctx := context.Background()
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	e := model.ScheduleEntry{ID: "a", Day: model.Monday, SlotID: "p1", SectionID: "s1", TeacherID: "t1", Subject: "Maths"}
	require.NoError(t, s.Upsert(ctx, model.ModeDraft, e))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.LoadEntries(ctx, model.ModeDraft)
	require.NoError(t, err)
	require.Equal(t, []model.ScheduleEntry{e}, got)
}

func TestWhereRendersFilter(t *testing.T) {
	cond, args := where(model.ModeDraft, grid.Filter{SectionIDs: []string{"s1", "s2"}, Day: model.Tuesday, BlockID: "b1"})
	require.Equal(t, "mode = ? AND section_id IN (?,?) AND block_id = ? AND day = ?", cond)
	require.Equal(t, []any{1, "s1", "s2", "b1", 2}, args)

	cond, args = where(model.ModeLive, grid.Filter{})
	require.Equal(t, "mode = ?", cond)
	require.Equal(t, []any{0}, args)
}

func TestOpenBackends(t *testing.T) {
	c := Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")}
	require.NoError(t, c.Validate())
	s, err := Open(c)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	m, err := Open(Config{Backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &grid.MemoryStore{}, m)

	require.Error(t, Config{Backend: "postgres"}.Validate())
	require.Error(t, Config{Backend: "mongo"}.Validate())

	var d Config
	d.SetDefaults()
	require.Equal(t, "sqlite", d.Backend)
	require.NotEmpty(t, d.Path)
}
