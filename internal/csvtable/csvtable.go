// Package csvtable reads the CSV form of an EASYMORE remap table.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/remapgen/internal/remap"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("csvtable: missing column")

// Read parses a remap table. Columns are matched by header name in any
// order; unknown columns, including a leading unnamed index column, are
// ignored.
func Read(r io.Reader) (*remap.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvtable: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range remap.RequiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	t := &remap.Table{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvtable: %w", err)
		}
		row, err := parseRow(rec, idx, line)
		if err != nil {
			return nil, err
		}
		t.IDt = append(t.IDt, row.IDt)
		t.IDs = append(t.IDs, row.IDs)
		t.Weight = append(t.Weight, row.Weight)
		t.Cols = append(t.Cols, row.Cols)
		t.Rows = append(t.Rows, row.Rows)
		t.Case = append(t.Case, row.Case)
	}
	return t, nil
}

func parseRow(rec []string, idx map[string]int, line int) (remap.Row, error) {
	var (
		row remap.Row
		err error
	)
	ints := []struct {
		col string
		dst *int64
	}{
		{remap.ColTarget, &row.IDt},
		{remap.ColSource, &row.IDs},
		{remap.ColCols, &row.Cols},
		{remap.ColRows, &row.Rows},
		{remap.ColCase, &row.Case},
	}
	for _, c := range ints {
		if *c.dst, err = parseInt(strings.TrimSpace(rec[idx[c.col]])); err != nil {
			return row, fmt.Errorf("csvtable: line %d column %s: %w", line, c.col, err)
		}
	}
	if row.Weight, err = strconv.ParseFloat(strings.TrimSpace(rec[idx[remap.ColWeight]]), 64); err != nil {
		return row, fmt.Errorf("csvtable: line %d column %s: %w", line, remap.ColWeight, err)
	}
	return row, nil
}

// parseInt accepts integers written as floats ("12.0"), which pandas emits
// for integer columns that passed through a float dtype.
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}
