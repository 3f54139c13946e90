// Package netcdf reads EASYMORE remap tables from, and writes mizuRoute
// remapping datasets to, netCDF classic files.
//
// Only the classic (CDF-1/CDF-2) encoding is supported. netCDF-4 files must
// be converted first, for example with `nccopy -k classic in.nc out.nc`.
package netcdf

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ctessum/cdf"

	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/remap"
)

var (
	// ErrMissingVariable is returned when a required variable is absent.
	ErrMissingVariable = errors.New("netcdf: missing variable")
	// ErrOutOfRange is returned when an integer can be stored neither as a
	// 32-bit netCDF int nor exactly as a double.
	ErrOutOfRange = errors.New("netcdf: integer out of storable range")
	// ErrNotInteger is returned when an integer column holds fractional values.
	ErrNotInteger = errors.New("netcdf: non-integer value in integer column")
	// ErrUnsupportedType is returned for variable types the codec cannot map.
	ErrUnsupportedType = errors.New("netcdf: unsupported variable type")
)

// ReadTable reads an EASYMORE remap table from a netCDF classic file.
func ReadTable(r cdf.ReaderWriterAt) (*remap.Table, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("netcdf: open remap file: %w", err)
	}

	have := map[string]bool{}
	for _, v := range f.Header.Variables() {
		have[v] = true
	}
	for _, name := range remap.RequiredColumns {
		if !have[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
	}

	t := &remap.Table{}
	if t.IDt, err = readInts(f, remap.ColTarget); err != nil {
		return nil, err
	}
	if t.IDs, err = readInts(f, remap.ColSource); err != nil {
		return nil, err
	}
	if t.Weight, err = readFloats(f, remap.ColWeight); err != nil {
		return nil, err
	}
	if t.Cols, err = readInts(f, remap.ColCols); err != nil {
		return nil, err
	}
	if t.Rows, err = readInts(f, remap.ColRows); err != nil {
		return nil, err
	}
	if t.Case, err = readInts(f, remap.ColCase); err != nil {
		return nil, err
	}

	// A scalar case is a table-wide value.
	if len(t.Case) == 1 && len(t.IDt) > 1 {
		c := t.Case[0]
		t.Case = make([]int64, len(t.IDt))
		for i := range t.Case {
			t.Case[i] = c
		}
	}
	return t, nil
}

// ReadDataset reads every dimension, variable and text attribute of a
// netCDF classic file.
func ReadDataset(r cdf.ReaderWriterAt) (*dataset.Dataset, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("netcdf: open: %w", err)
	}

	ds := dataset.New()
	names := f.Header.Dimensions("")
	lengths := f.Header.Lengths("")
	for i, name := range names {
		if err := ds.AddDim(name, lengths[i]); err != nil {
			return nil, err
		}
	}
	ds.Attrs = readAttrs(f, "")

	for _, name := range f.Header.Variables() {
		raw, err := readRaw(f, name)
		if err != nil {
			return nil, err
		}
		v := &dataset.Variable{
			Name:  name,
			Dims:  f.Header.Dimensions(name),
			Attrs: readAttrs(f, name),
		}
		switch raw.(type) {
		case []float32, []float64:
			if integerVars[name] {
				v.Data, err = toInts(name, raw)
				break
			}
			v.Data, err = toFloats(name, raw)
		default:
			v.Data, err = toInts(name, raw)
		}
		if err != nil {
			return nil, err
		}
		if err := ds.AddVar(v); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Write encodes ds as a netCDF classic file. Integer variables are stored as
// 32-bit ints when every value fits, otherwise as doubles, which hold
// integers exactly up to 2^53. Floating point variables are stored as doubles.
func Write(w cdf.ReaderWriterAt, ds *dataset.Dataset) error {
	dimNames := make([]string, len(ds.Dims))
	dimLens := make([]int, len(ds.Dims))
	for i, d := range ds.Dims {
		dimNames[i] = d.Name
		dimLens[i] = d.Len
	}
	h := cdf.NewHeader(dimNames, dimLens)
	for _, a := range ds.Attrs {
		h.AddAttribute("", a.Name, a.Value)
	}

	data := make(map[string]any, len(ds.Vars))
	for _, v := range ds.Vars {
		switch d := v.Data.(type) {
		case []int64:
			if out, ok := narrow(d); ok {
				data[v.Name] = out
				h.AddVariable(v.Name, v.Dims, []int32{0})
				break
			}
			out, err := widen(v.Name, d)
			if err != nil {
				return err
			}
			data[v.Name] = out
			h.AddVariable(v.Name, v.Dims, []float64{0})
		case []float64:
			data[v.Name] = d
			h.AddVariable(v.Name, v.Dims, []float64{0})
		default:
			return fmt.Errorf("%w: %s holds %T", ErrUnsupportedType, v.Name, v.Data)
		}
		for _, a := range v.Attrs {
			h.AddAttribute(v.Name, a.Name, a.Value)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("netcdf: invalid header: %w", errors.Join(errs...))
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("netcdf: create: %w", err)
	}
	for _, v := range ds.Vars {
		end := f.Header.Lengths(v.Name)
		start := make([]int, len(end))
		if _, err := f.Writer(v.Name, start, end).Write(data[v.Name]); err != nil {
			return fmt.Errorf("netcdf: writing variable %s: %w", v.Name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// Encode returns the netCDF classic encoding of ds.
func Encode(ds *dataset.Dataset) ([]byte, error) {
	var buf Buffer
	if err := Write(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readRaw(f *cdf.File, name string) (any, error) {
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	if _, err := r.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("netcdf: reading variable %s: %w", name, err)
	}
	return buf, nil
}

func readInts(f *cdf.File, name string) ([]int64, error) {
	raw, err := readRaw(f, name)
	if err != nil {
		return nil, err
	}
	return toInts(name, raw)
}

func readFloats(f *cdf.File, name string) ([]float64, error) {
	raw, err := readRaw(f, name)
	if err != nil {
		return nil, err
	}
	return toFloats(name, raw)
}

func readAttrs(f *cdf.File, v string) dataset.Attributes {
	var attrs dataset.Attributes
	for _, name := range f.Header.Attributes(v) {
		switch val := f.Header.GetAttribute(v, name).(type) {
		case string:
			attrs.Set(name, val)
		default:
			attrs.Set(name, fmt.Sprint(val))
		}
	}
	return attrs
}

func toInts(name string, raw any) ([]int64, error) {
	switch d := raw.(type) {
	case []int8:
		return convert(d, func(v int8) int64 { return int64(v) }), nil
	case []uint8:
		return convert(d, func(v uint8) int64 { return int64(v) }), nil
	case []int16:
		return convert(d, func(v int16) int64 { return int64(v) }), nil
	case []int32:
		return convert(d, func(v int32) int64 { return int64(v) }), nil
	case []float32:
		return floatsToInts(name, convert(d, func(v float32) float64 { return float64(v) }))
	case []float64:
		return floatsToInts(name, d)
	default:
		return nil, fmt.Errorf("%w: %s holds %T", ErrUnsupportedType, name, raw)
	}
}

func toFloats(name string, raw any) ([]float64, error) {
	switch d := raw.(type) {
	case []float64:
		return d, nil
	case []float32:
		return convert(d, func(v float32) float64 { return float64(v) }), nil
	case []int32:
		return convert(d, func(v int32) float64 { return float64(v) }), nil
	case []int16:
		return convert(d, func(v int16) float64 { return float64(v) }), nil
	case []int8:
		return convert(d, func(v int8) float64 { return float64(v) }), nil
	case []uint8:
		return convert(d, func(v uint8) float64 { return float64(v) }), nil
	default:
		return nil, fmt.Errorf("%w: %s holds %T", ErrUnsupportedType, name, raw)
	}
}

func floatsToInts(name string, d []float64) ([]int64, error) {
	out := make([]int64, len(d))
	for i, v := range d {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s[%d] = %v", ErrNotInteger, name, i, v)
		}
		out[i] = int64(v)
	}
	return out, nil
}

// maxExact is the largest magnitude below which every integer has an exact
// double representation.
const maxExact = 1 << 53

// integerVars are remapping variables that hold integers even when a file
// stores them as doubles.
var integerVars = map[string]bool{
	remap.DimPolyID:    true,
	remap.DimIntersect: true,
	remap.VarRNID:      true,
	remap.VarRNFR:      true,
	remap.VarIDMask:    true,
	remap.VarIIndex:    true,
	remap.VarJIndex:    true,
	remap.VarIDHR:      true,
}

func narrow(d []int64) ([]int32, bool) {
	out := make([]int32, len(d))
	for i, v := range d {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, false
		}
		out[i] = int32(v)
	}
	return out, true
}

func widen(name string, d []int64) ([]float64, error) {
	out := make([]float64, len(d))
	for i, v := range d {
		if v < -maxExact || v > maxExact {
			return nil, fmt.Errorf("%w: %s[%d] = %d", ErrOutOfRange, name, i, v)
		}
		out[i] = float64(v)
	}
	return out, nil
}

func convert[S, D any](in []S, f func(S) D) []D {
	out := make([]D, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
