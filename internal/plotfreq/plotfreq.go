// Package plotfreq renders the distribution of RN_FR, the number of source
// units overlapping each river network subbasin.
package plotfreq

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/remap"
)

// DefaultBins is used when SaveHistogram is called with bins <= 0.
const DefaultBins = 20

// ErrNoData is returned for a dataset without subbasins.
var ErrNoData = errors.New("plotfreq: no RN_FR values")

// Histogram builds the plot without saving it.
func Histogram(ds *dataset.Dataset, bins int) (*plot.Plot, error) {
	rnFR, err := ds.Int64s(remap.VarRNFR)
	if err != nil {
		return nil, err
	}
	if len(rnFR) == 0 {
		return nil, ErrNoData
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	vals := make(plotter.Values, len(rnFR))
	for i, v := range rnFR {
		vals[i] = float64(v)
	}
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return nil, fmt.Errorf("plotfreq: build histogram: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Intersections per river network subbasin (n=%d)", len(rnFR))
	p.X.Label.Text = "RN_FR"
	p.Y.Label.Text = "subbasins"
	p.Add(h)
	return p, nil
}

// SaveHistogram writes the RN_FR histogram to path. The image format follows
// the file extension (.png, .svg, .pdf, ...).
func SaveHistogram(ds *dataset.Dataset, path string, bins int) error {
	p, err := Histogram(ds, bins)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plotfreq: save %s: %w", path, err)
	}
	return nil
}
