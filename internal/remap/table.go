package remap

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable is returned when the remap table has no rows.
	ErrEmptyTable = errors.New("remap: table has no rows")
	// ErrRaggedTable is returned when the table columns differ in length.
	ErrRaggedTable = errors.New("remap: table columns differ in length")
)

// Column names of an EASYMORE remap table.
const (
	ColTarget = "ID_t"
	ColSource = "ID_s"
	ColWeight = "weight"
	ColCols   = "cols"
	ColRows   = "rows"
	ColCase   = "easymore_case"
)

// RequiredColumns lists the columns every remap table must provide.
var RequiredColumns = []string{ColTarget, ColSource, ColWeight, ColCols, ColRows, ColCase}

// Row is one intersection record between a source unit and a target subbasin.
type Row struct {
	IDt    int64
	IDs    int64
	Weight float64
	Cols   int64
	Rows   int64
	Case   int64
}

// Table is an EASYMORE remap table stored column-wise.
type Table struct {
	IDt    []int64
	IDs    []int64
	Weight []float64
	Cols   []int64
	Rows   []int64
	Case   []int64
}

// NewTable builds a table from rows.
func NewTable(rows []Row) *Table {
	t := &Table{
		IDt:    make([]int64, len(rows)),
		IDs:    make([]int64, len(rows)),
		Weight: make([]float64, len(rows)),
		Cols:   make([]int64, len(rows)),
		Rows:   make([]int64, len(rows)),
		Case:   make([]int64, len(rows)),
	}
	for i, r := range rows {
		t.IDt[i] = r.IDt
		t.IDs[i] = r.IDs
		t.Weight[i] = r.Weight
		t.Cols[i] = r.Cols
		t.Rows[i] = r.Rows
		t.Case[i] = r.Case
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.IDt)
}

// Row returns row i.
func (t *Table) Row(i int) Row {
	return Row{
		IDt:    t.IDt[i],
		IDs:    t.IDs[i],
		Weight: t.Weight[i],
		Cols:   t.Cols[i],
		Rows:   t.Rows[i],
		Case:   t.Case[i],
	}
}

// Validate checks that the table has rows and that all columns line up.
func (t *Table) Validate() error {
	n := len(t.IDt)
	lens := map[string]int{
		ColSource: len(t.IDs),
		ColWeight: len(t.Weight),
		ColCols:   len(t.Cols),
		ColRows:   len(t.Rows),
		ColCase:   len(t.Case),
	}
	for _, name := range RequiredColumns[1:] {
		if lens[name] != n {
			return fmt.Errorf("%w: %s has %d rows, %s has %d", ErrRaggedTable, ColTarget, n, name, lens[name])
		}
	}
	if n == 0 {
		return ErrEmptyTable
	}
	return nil
}
