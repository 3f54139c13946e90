// Package dataset holds an in-memory multidimensional dataset: named
// dimensions, typed one-dimensional or multi-dimensional variables and
// ordered attributes. It is the value handed between the remapping logic and
// the file codecs.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when variable data does not match the
	// product of its dimension lengths.
	ErrShapeMismatch = errors.New("dataset: data length does not match dimensions")
	// ErrDuplicate is returned when a dimension or variable name is reused.
	ErrDuplicate = errors.New("dataset: duplicate name")
	// ErrUnknownDim is returned when a variable refers to a missing dimension.
	ErrUnknownDim = errors.New("dataset: unknown dimension")
	// ErrTypeMismatch is returned when a variable holds a different element
	// type than the caller asked for.
	ErrTypeMismatch = errors.New("dataset: variable type mismatch")
	// ErrNotFound is returned when a named variable does not exist.
	ErrNotFound = errors.New("dataset: variable not found")
)

// Dimension is a named axis.
type Dimension struct {
	Name string
	Len  int
}

// Variable is a named array laid out over one or more dimensions.
// Data is either []int64 or []float64.
type Variable struct {
	Name  string
	Dims  []string
	Attrs Attributes
	Data  any
}

// Len returns the number of elements held by v.
func (v *Variable) Len() int {
	switch d := v.Data.(type) {
	case []int64:
		return len(d)
	case []float64:
		return len(d)
	default:
		return 0
	}
}

// Dataset is an ordered collection of dimensions, variables and global
// attributes. Order is preserved so that encodings are reproducible.
type Dataset struct {
	Dims  []Dimension
	Vars  []*Variable
	Attrs Attributes
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{}
}

// AddDim appends a dimension.
func (ds *Dataset) AddDim(name string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: dimension %q has negative length %d", ErrShapeMismatch, name, n)
	}
	if _, ok := ds.Dim(name); ok {
		return fmt.Errorf("%w: dimension %q", ErrDuplicate, name)
	}
	ds.Dims = append(ds.Dims, Dimension{Name: name, Len: n})
	return nil
}

// Dim looks up a dimension by name.
func (ds *Dataset) Dim(name string) (Dimension, bool) {
	for _, d := range ds.Dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// AddVar validates v against the declared dimensions and appends it.
func (ds *Dataset) AddVar(v *Variable) error {
	if ds.Var(v.Name) != nil {
		return fmt.Errorf("%w: variable %q", ErrDuplicate, v.Name)
	}
	switch v.Data.(type) {
	case []int64, []float64:
	default:
		return fmt.Errorf("%w: variable %q has unsupported data type %T", ErrTypeMismatch, v.Name, v.Data)
	}
	want := 1
	for _, name := range v.Dims {
		d, ok := ds.Dim(name)
		if !ok {
			return fmt.Errorf("%w: variable %q refers to %q", ErrUnknownDim, v.Name, name)
		}
		want *= d.Len
	}
	if got := v.Len(); got != want {
		return fmt.Errorf("%w: variable %q has %d elements, dimensions %v need %d",
			ErrShapeMismatch, v.Name, got, v.Dims, want)
	}
	ds.Vars = append(ds.Vars, v)
	return nil
}

// Var returns the named variable or nil.
func (ds *Dataset) Var(name string) *Variable {
	for _, v := range ds.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Has reports whether the named variable exists.
func (ds *Dataset) Has(name string) bool {
	return ds.Var(name) != nil
}

// Int64s returns the data of an integer variable.
func (ds *Dataset) Int64s(name string) ([]int64, error) {
	v := ds.Var(name)
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	d, ok := v.Data.([]int64)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, not []int64", ErrTypeMismatch, name, v.Data)
	}
	return d, nil
}

// Float64s returns the data of a floating point variable.
func (ds *Dataset) Float64s(name string) ([]float64, error) {
	v := ds.Var(name)
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	d, ok := v.Data.([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, not []float64", ErrTypeMismatch, name, v.Data)
	}
	return d, nil
}
