package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/remapgen/internal/config"
	"github.com/banshee-data/remapgen/internal/monitoring"
	"github.com/banshee-data/remapgen/internal/netcdf"
	"github.com/banshee-data/remapgen/internal/remap"
	"github.com/banshee-data/remapgen/internal/store"
)

const fixture = `ID_t,ID_s,weight,cols,rows,easymore_case
5,50,0.6,1,2,1
3,30,1.0,4,5,1
5,51,0.4,6,7,1
`

func writeFixture(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "remap.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunCSVToNetCDF(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	in := writeFixture(t, dir, fixture)
	out := filepath.Join(dir, "mizu_remap.nc")
	db := filepath.Join(dir, "remap.db")
	hist := filepath.Join(dir, "freq.png")

	var stdout bytes.Buffer
	err := run(&stdout, options{
		in:           in,
		out:          out,
		cfg:          &config.RemapConfig{},
		sqlite:       db,
		hist:         hist,
		checkWeights: true,
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "wrote "+out)
	assert.Contains(t, stdout.String(), "min=1.000000 max=1.000000")
	assert.NotContains(t, stdout.String(), "subbasins with weight sum off")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	ds, err := netcdf.ReadDataset(f)
	require.NoError(t, err)

	iIndex, err := ds.Int64s(remap.VarIIndex)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2, 7}, iIndex)

	_, err = os.Stat(hist)
	assert.NoError(t, err)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, in, runs[0].Source)

	var summary bytes.Buffer
	require.NoError(t, inspectFile(&summary, out))
	assert.Contains(t, summary.String(), "dim polyid = 2")
	assert.Contains(t, summary.String(), "dim intersect = 3")
	assert.Contains(t, summary.String(), "var i_index(intersect) cols from the source nc file")
	assert.Contains(t, summary.String(), `:Conventions = "CF-1.6"`)
}

func TestRunUnknownCase(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	in := writeFixture(t, dir, "ID_t,ID_s,weight,cols,rows,easymore_case\n1,1,1.0,0,0,9\n")
	out := filepath.Join(dir, "out.nc")

	err := run(&bytes.Buffer{}, options{in: in, out: out, cfg: &config.RemapConfig{}})
	assert.ErrorIs(t, err, remap.ErrUnknownCase)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output should be written on error")

	allow := true
	err = run(&bytes.Buffer{}, options{in: in, out: out, cfg: &config.RemapConfig{AllowUnknownCase: &allow}})
	require.NoError(t, err)
}

func TestRunWriteFailureLeavesNoOutput(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	// 2^53+1 has no exact netCDF representation.
	in := writeFixture(t, dir, "ID_t,ID_s,weight,cols,rows,easymore_case\n9007199254740993,1,1.0,0,0,3\n")
	out := filepath.Join(dir, "out.nc")

	err := run(&bytes.Buffer{}, options{in: in, out: out, cfg: &config.RemapConfig{}})
	assert.ErrorIs(t, err, netcdf.ErrOutOfRange)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "failed write left %s behind", out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}

func TestRunLargeIDs(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	in := writeFixture(t, dir, "ID_t,ID_s,weight,cols,rows,easymore_case\n7120034520,7120034521,1.0,0,0,3\n")
	out := filepath.Join(dir, "out.nc")

	require.NoError(t, run(&bytes.Buffer{}, options{in: in, out: out, cfg: &config.RemapConfig{}}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	ds, err := netcdf.ReadDataset(f)
	require.NoError(t, err)
	rnID, err := ds.Int64s(remap.VarRNID)
	require.NoError(t, err)
	assert.Equal(t, []int64{7120034520}, rnID)
}

func TestRunReportsWeightOutliers(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	in := writeFixture(t, dir, "ID_t,ID_s,weight,cols,rows,easymore_case\n1,1,0.5,0,0,3\n2,2,1.0,0,0,3\n")

	var stdout bytes.Buffer
	err := run(&stdout, options{in: in, out: filepath.Join(dir, "out.nc"), cfg: &config.RemapConfig{}, checkWeights: true})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "1 subbasins with weight sum off by more than 0.001: [1]")
}

func TestRunRejectsBadPaths(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, fixture)

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"missing input", filepath.Join(dir, "missing.nc"), filepath.Join(dir, "out.nc")},
		{"output not nc", in, filepath.Join(dir, "out.csv")},
		{"output over input", in, in},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(&bytes.Buffer{}, options{in: tt.in, out: tt.out, cfg: &config.RemapConfig{}})
			assert.Error(t, err)
		})
	}
}

func TestHead(t *testing.T) {
	assert.Equal(t, []int64{1, 2}, head([]int64{1, 2, 3}, 2))
	assert.Equal(t, []int64{1}, head([]int64{1}, 2))
}
