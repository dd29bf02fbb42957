package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanScan(t *testing.T) {
	result := Validate(Scan{
		Table:   TableFrames,
		Columns: []string{"seq", "abs_ms", "trace_hash"},
		Filter: And{Predicates: []Predicate{
			Eq{Column: "session_token", Value: "demo-1"},
			Range{Column: "seq", Min: int64(1), Max: int64(100)},
		}},
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateOpenEndedRange(t *testing.T) {
	result := Validate(Scan{
		Table:   TableFrames,
		Columns: []string{"seq"},
		Filter:  Range{Column: "abs_ms", Min: float64(500)},
	})
	assert.True(t, result.Valid)
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	result := Validate(Scan{
		Table:   TableFrames,
		Columns: []string{"seq", "color", "seq"},
		Filter: And{Predicates: []Predicate{
			Eq{Column: "ghost", Value: 1},
			Range{Column: "seq"},
			nil,
		}},
	})

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], `no column "color"`)
	assert.Contains(t, result.Errors[1], `column "seq" selected twice`)
	assert.Contains(t, result.Errors[2], `no column "ghost"`)
	assert.Contains(t, result.Errors[3], "no bounds")
	assert.Contains(t, result.Errors[4], "nil predicate")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		scan Scan
		want string
	}{
		{
			name: "unknown table",
			scan: Scan{Table: "passes", Columns: []string{"seq"}},
			want: `unknown table "passes"`,
		},
		{
			name: "no columns",
			scan: Scan{Table: TableSessions},
			want: "selects no columns",
		},
		{
			name: "eq without value",
			scan: Scan{
				Table:   TableSessions,
				Columns: []string{"token"},
				Filter:  Eq{Column: "token"},
			},
			want: "has no value",
		},
		{
			name: "empty and",
			scan: Scan{
				Table:   TablePrograms,
				Columns: []string{"hash"},
				Filter:  And{},
			},
			want: "and with no predicates",
		},
		{
			name: "column from another table",
			scan: Scan{
				Table:   TablePrograms,
				Columns: []string{"hash"},
				Filter:  Eq{Column: "session_token", Value: "x"},
			},
			want: `table "programs" has no column "session_token"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.scan)
			require.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestValidatePointerPredicates(t *testing.T) {
	result := Validate(Scan{
		Table:   TableFrames,
		Columns: []string{"seq"},
		Filter: &And{Predicates: []Predicate{
			&Eq{Column: "session_token", Value: "demo"},
			&Range{Column: "seq", Min: int64(2)},
		}},
	})
	assert.True(t, result.Valid)
}
