package remap

import (
	"errors"
	"fmt"
)

// ErrUnknownCase is returned for an easymore_case value outside 1, 2 and 3.
var ErrUnknownCase = errors.New("remap: unknown easymore_case")

// Case identifies how the source mesh is indexed in an EASYMORE remap table.
type Case int

const (
	// CaseGridRegular is a regular lat/lon source grid addressed by cols/rows.
	CaseGridRegular Case = 1
	// CaseGridIrregular is a curvilinear source grid addressed by cols/rows.
	CaseGridIrregular Case = 2
	// CaseUnstructured is an unstructured source mesh addressed by ID_s.
	CaseUnstructured Case = 3
)

// ParseCase converts a raw easymore_case value.
func ParseCase(v int64) (Case, error) {
	switch c := Case(v); c {
	case CaseGridRegular, CaseGridIrregular, CaseUnstructured:
		return c, nil
	default:
		return 0, fmt.Errorf("%w: %d (want 1, 2 or 3)", ErrUnknownCase, v)
	}
}

// IsGrid reports whether source cells are addressed by cols/rows.
func (c Case) IsGrid() bool {
	return c == CaseGridRegular || c == CaseGridIrregular
}

// IsUnstructured reports whether source cells are addressed by ID_s.
func (c Case) IsUnstructured() bool {
	return c == CaseUnstructured
}

func (c Case) String() string {
	switch c {
	case CaseGridRegular:
		return "grid-regular"
	case CaseGridIrregular:
		return "grid-irregular"
	case CaseUnstructured:
		return "unstructured"
	default:
		return fmt.Sprintf("Case(%d)", int(c))
	}
}
