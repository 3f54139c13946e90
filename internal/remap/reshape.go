// Package remap turns an EASYMORE intersection table into the remapping
// dataset read by the mizuRoute routing model.
//
// The input has one row per overlapping pair of source unit and river network
// subbasin. The output is organised around two dimensions: polyid (one entry
// per distinct subbasin, ascending) and intersect (one entry per input row,
// sorted by subbasin). Grid indices are shifted from zero-based to one-based
// on the way through.
package remap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/monitoring"
)

var (
	// ErrInvariantViolated marks a broken internal invariant. It is never
	// caused by bad input and callers should treat it as fatal.
	ErrInvariantViolated = errors.New("remap: invariant violated")
	// ErrMixedCase is returned when rows disagree on easymore_case.
	ErrMixedCase = errors.New("remap: easymore_case differs between rows")
)

// Dimension and variable names of the mizuRoute remapping file.
const (
	DimPolyID    = "polyid"
	DimIntersect = "intersect"

	VarRNID   = "RN_ID"
	VarRNFR   = "RN_FR"
	VarIDMask = "IDmask"
	VarWeight = "weight"
	VarIIndex = "i_index"
	VarJIndex = "j_index"
	VarIDHR   = "ID_HR"
)

// Default global attribute values.
const (
	DefaultConventions = "CF-1.6"
	DefaultAuthor      = "The data were written by easymore_codes"
	DefaultLicense     = "MIT"
	DefaultHistory     = "Created"
)

// Options controls how strictly the table is interpreted and the provenance
// attributes written to the output.
type Options struct {
	// AllowUnknownCase accepts an easymore_case outside 1..3 and emits only
	// the fields every case shares.
	AllowUnknownCase bool
	// CheckCaseUniform rejects tables whose rows disagree on easymore_case.
	CheckCaseUniform bool

	Author  string
	License string
	History string
}

// DefaultOptions returns strict options with the stock attribute values.
func DefaultOptions() Options {
	return Options{
		CheckCaseUniform: true,
		Author:           DefaultAuthor,
		License:          DefaultLicense,
		History:          DefaultHistory,
	}
}

// countUnique is swapped out by tests to exercise the invariant check.
var countUnique = uniqueCounts

// uniqueCounts returns the distinct values of a sorted slice and the number
// of times each occurs.
func uniqueCounts(sorted []int64) (ids, counts []int64) {
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			ids = append(ids, v)
			counts = append(counts, 0)
		}
		counts[len(counts)-1]++
	}
	return ids, counts
}

type varMeta struct {
	name     string
	longName string
}

var (
	metaRNID   = varMeta{VarRNID, "ID of River Network subbasins"}
	metaRNFR   = varMeta{VarRNFR, "Frequency of intersection River Network subbasins with hydrological subbasins"}
	metaIDMask = varMeta{VarIDMask, "ID of river network subbasins"}
	metaWeight = varMeta{VarWeight, "Weight of each hydrological unit in river network subbasins"}
	metaIIndex = varMeta{VarIIndex, "cols from the source nc file"}
	metaJIndex = varMeta{VarJIndex, "rows from the source nc file"}
	metaIDHR   = varMeta{VarIDHR, "river network ID"}
)

func (m varMeta) variable(dim string, data any) *dataset.Variable {
	v := &dataset.Variable{Name: m.name, Dims: []string{dim}, Data: data}
	v.Attrs.Set("long_name", m.longName)
	v.Attrs.Set("standard_name", m.longName)
	v.Attrs.Set("units", "1")
	return v
}

// Reshape builds the mizuRoute remapping dataset from t. The input table is
// not modified. On error no dataset is returned.
func Reshape(t *Table, opts Options) (*dataset.Dataset, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	n := t.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.IDt[order[a]] < t.IDt[order[b]]
	})

	rawCase := t.Case[order[0]]
	if opts.CheckCaseUniform {
		for _, c := range t.Case {
			if c != rawCase {
				return nil, fmt.Errorf("%w: found %d and %d", ErrMixedCase, rawCase, c)
			}
		}
	}
	c, err := ParseCase(rawCase)
	if err != nil && !opts.AllowUnknownCase {
		return nil, err
	}

	idMask := make([]int64, n)
	weight := make([]float64, n)
	iIndex := make([]int64, n)
	jIndex := make([]int64, n)
	idHR := make([]int64, n)
	for k, i := range order {
		idMask[k] = t.IDt[i]
		weight[k] = t.Weight[i]
		iIndex[k] = t.Cols[i] + 1
		jIndex[k] = t.Rows[i] + 1
		idHR[k] = t.IDs[i]
	}

	rnID, rnFR := countUnique(idMask)
	monitoring.Logf("Overlap count between river network and hydrological units: %d", n)
	if len(rnID) != len(rnFR) {
		return nil, fmt.Errorf("%w: %d river network IDs but %d frequencies", ErrInvariantViolated, len(rnID), len(rnFR))
	}
	monitoring.Logf("Number of unique river network IDs: %d", len(rnID))

	ds := dataset.New()
	if err := ds.AddDim(DimPolyID, len(rnID)); err != nil {
		return nil, err
	}
	if err := ds.AddDim(DimIntersect, n); err != nil {
		return nil, err
	}

	vars := []*dataset.Variable{
		{Name: DimPolyID, Dims: []string{DimPolyID}, Data: arange(len(rnID))},
		{Name: DimIntersect, Dims: []string{DimIntersect}, Data: arange(n)},
		metaRNID.variable(DimPolyID, rnID),
		metaRNFR.variable(DimPolyID, rnFR),
		metaIDMask.variable(DimIntersect, idMask),
		metaWeight.variable(DimIntersect, weight),
	}
	switch {
	case err != nil:
		// unknown case accepted by options: shared fields only
	case c.IsGrid():
		vars = append(vars,
			metaIIndex.variable(DimIntersect, iIndex),
			metaJIndex.variable(DimIntersect, jIndex))
	case c.IsUnstructured():
		vars = append(vars, metaIDHR.variable(DimIntersect, idHR))
	}
	for _, v := range vars {
		if err := ds.AddVar(v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}
	}

	ds.Attrs.Set("Conventions", DefaultConventions)
	ds.Attrs.Set("Author", orDefault(opts.Author, DefaultAuthor))
	ds.Attrs.Set("License", orDefault(opts.License, DefaultLicense))
	ds.Attrs.Set("History", orDefault(opts.History, DefaultHistory))
	ds.Attrs.Set("Source", SourceNote(rawCase))
	return ds, nil
}

// SourceNote is the Source attribute text for a given case value.
func SourceNote(c int64) string {
	return fmt.Sprintf("Case: %d; remapped by script from Shervan Gharari's EASYMORE library", c)
}

// CaseOf reads the case value back from a dataset built by Reshape.
func CaseOf(ds *dataset.Dataset) (int64, error) {
	src, ok := ds.Attrs.Get("Source")
	if !ok {
		return 0, errors.New("remap: dataset has no Source attribute")
	}
	var c int64
	if _, err := fmt.Sscanf(src, "Case: %d;", &c); err != nil {
		return 0, fmt.Errorf("remap: parse Source attribute %q: %w", src, err)
	}
	return c, nil
}

func arange(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
