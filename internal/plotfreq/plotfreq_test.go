package plotfreq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/monitoring"
	"github.com/banshee-data/remapgen/internal/remap"
)

func TestSaveHistogram(t *testing.T) {
	monitoring.SetLogger(nil)
	ds, err := remap.Reshape(remap.NewTable([]remap.Row{
		{IDt: 1, Weight: 1, Case: 3},
		{IDt: 2, Weight: 0.5, Case: 3},
		{IDt: 2, Weight: 0.5, Case: 3},
		{IDt: 3, Weight: 1, Case: 3},
	}), remap.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "freq.png")
	require.NoError(t, SaveHistogram(ds, path, 0))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogramErrors(t *testing.T) {
	_, err := Histogram(dataset.New(), 5)
	assert.ErrorIs(t, err, dataset.ErrNotFound)

	ds := dataset.New()
	require.NoError(t, ds.AddDim(remap.DimPolyID, 0))
	require.NoError(t, ds.AddVar(&dataset.Variable{Name: remap.VarRNFR, Dims: []string{remap.DimPolyID}, Data: []int64{}}))
	_, err = Histogram(ds, 5)
	assert.ErrorIs(t, err, ErrNoData)
}
