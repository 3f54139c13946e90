package csvtable

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/remapgen/internal/remap"
)

func TestRead(t *testing.T) {
	in := `,ID_s,ID_t,weight,cols,rows,easymore_case,lat_s
0,50,5,0.3,1,2,1,45.5
1,30,3,0.7,4,5,1,45.6
2,51,5.0,0.2,6,7,1,45.7
`
	tbl, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	want := remap.NewTable([]remap.Row{
		{IDt: 5, IDs: 50, Weight: 0.3, Cols: 1, Rows: 2, Case: 1},
		{IDt: 3, IDs: 30, Weight: 0.7, Cols: 4, Rows: 5, Case: 1},
		{IDt: 5, IDs: 51, Weight: 0.2, Cols: 6, Rows: 7, Case: 1},
	})
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
		msg     string
	}{
		{"missing column", "ID_t,ID_s,weight,cols,rows\n1,2,0.5,0,0\n", ErrMissingColumn, "easymore_case"},
		{"bad weight", "ID_t,ID_s,weight,cols,rows,easymore_case\n1,2,x,0,0,1\n", nil, "line 2 column weight"},
		{"fractional id", "ID_t,ID_s,weight,cols,rows,easymore_case\n1.5,2,0.5,0,0,1\n", nil, "line 2 column ID_t"},
		{"empty input", "", nil, "read header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadHeaderOnly(t *testing.T) {
	tbl, err := Read(strings.NewReader("ID_t,ID_s,weight,cols,rows,easymore_case\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.ErrorIs(t, tbl.Validate(), remap.ErrEmptyTable)
}
