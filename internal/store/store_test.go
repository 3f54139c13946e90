package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/remapgen/internal/monitoring"
	"github.com/banshee-data/remapgen/internal/remap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	monitoring.SetLogger(nil)
	s, err := Open(filepath.Join(t.TempDir(), "remap.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return s
}

func exampleRows(c int64) []remap.Row {
	return []remap.Row{
		{IDt: 5, IDs: 50, Weight: 0.3, Cols: 1, Rows: 2, Case: c},
		{IDt: 3, IDs: 30, Weight: 0.7, Cols: 4, Rows: 5, Case: c},
		{IDt: 5, IDs: 51, Weight: 0.2, Cols: 6, Rows: 7, Case: c},
	}
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestSaveGridRun(t *testing.T) {
	s := openTestStore(t)

	ds, err := remap.Reshape(remap.NewTable(exampleRows(1)), remap.DefaultOptions())
	require.NoError(t, err)

	runID, err := s.Save(ds, "remap_case1.nc")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, Run{ID: runID, Case: 1, Source: "remap_case1.nc", PolyIDs: 2, Intersects: 3}, runs[0])

	rnID, rnFR, err := s.Polys(runID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, rnID)
	assert.Equal(t, []int64{1, 2}, rnFR)

	rows, err := s.Intersects(runID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(3), rows[0].IDMask)
	assert.InDelta(t, 0.7, rows[0].Weight, 1e-12)
	require.NotNil(t, rows[0].IIndex)
	assert.Equal(t, int64(5), *rows[0].IIndex)
	require.NotNil(t, rows[2].JIndex)
	assert.Equal(t, int64(8), *rows[2].JIndex)
	assert.Nil(t, rows[0].IDHR)
}

func TestSaveUnstructuredRun(t *testing.T) {
	s := openTestStore(t)

	ds, err := remap.Reshape(remap.NewTable(exampleRows(3)), remap.DefaultOptions())
	require.NoError(t, err)

	first, err := s.Save(ds, "a.nc")
	require.NoError(t, err)
	second, err := s.Save(ds, "b.nc")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	rows, err := s.Intersects(second)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, want := range []int64{30, 50, 51} {
		require.NotNil(t, rows[i].IDHR)
		assert.Equal(t, want, *rows[i].IDHR)
		assert.Nil(t, rows[i].IIndex)
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
