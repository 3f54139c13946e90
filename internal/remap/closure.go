package remap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/remapgen/internal/dataset"
)

// Closure summarises how the weights of each river network subbasin add up.
// EASYMORE weights are fractions of subbasin area, so each sum is expected to
// be close to 1 unless the source mesh does not cover the subbasin.
type Closure struct {
	Sums     []float64 // per RN_ID, aligned with polyid
	Min      float64
	Max      float64
	Mean     float64
	Outliers []int64 // RN_ID values whose sum is off by more than the tolerance
}

// WeightClosure computes per-subbasin weight sums of a remapping dataset.
func WeightClosure(ds *dataset.Dataset, tol float64) (Closure, error) {
	rnID, err := ds.Int64s(VarRNID)
	if err != nil {
		return Closure{}, err
	}
	rnFR, err := ds.Int64s(VarRNFR)
	if err != nil {
		return Closure{}, err
	}
	weight, err := ds.Float64s(VarWeight)
	if err != nil {
		return Closure{}, err
	}
	if len(rnID) != len(rnFR) {
		return Closure{}, fmt.Errorf("%w: %d river network IDs but %d frequencies", ErrInvariantViolated, len(rnID), len(rnFR))
	}

	var cl Closure
	cl.Sums = make([]float64, len(rnID))
	start := 0
	for i, fr := range rnFR {
		if fr < 0 {
			return Closure{}, fmt.Errorf("%w: RN_FR[%d] = %d is negative", ErrInvariantViolated, i, fr)
		}
		end := start + int(fr)
		if end > len(weight) {
			return Closure{}, fmt.Errorf("%w: RN_FR covers %d rows, weight has %d", ErrInvariantViolated, end, len(weight))
		}
		cl.Sums[i] = floats.Sum(weight[start:end])
		if math.Abs(cl.Sums[i]-1) > tol {
			cl.Outliers = append(cl.Outliers, rnID[i])
		}
		start = end
	}
	if start != len(weight) {
		return Closure{}, fmt.Errorf("%w: RN_FR covers %d rows, weight has %d", ErrInvariantViolated, start, len(weight))
	}
	if len(cl.Sums) > 0 {
		cl.Min = floats.Min(cl.Sums)
		cl.Max = floats.Max(cl.Sums)
		cl.Mean = stat.Mean(cl.Sums, nil)
	}
	return cl, nil
}
