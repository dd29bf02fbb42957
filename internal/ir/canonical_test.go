package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Primitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", String("hello"), `"hello"`},
		{"bool_true", Boolean(true), `true`},
		{"bool_false", false, `false`},
		{"int_valued_float", Number(3), `3`},
		{"fractional_float", Number(0.5), `0.5`},
		{"negative", Number(-2.25), `-2.25`},
		{"int64", int64(42), `42`},
		{"float64", 16.5, `16.5`},
		{"empty_list", List{}, `[]`},
		{"float_slice", []float64{1, 0.5}, `[1,0.5]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_ObjectKeyOrder(t *testing.T) {
	obj := Dict{
		"zeta":  Number(1),
		"alpha": Number(2),
		"mid":   Number(3),
	}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zeta":1}`, string(got))
}

func TestMarshalCanonical_NestedDeterministic(t *testing.T) {
	obj := Dict{
		"b": List{Number(1), String("x")},
		"a": Dict{"y": Boolean(true), "x": Number(0.25)},
	}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	second, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, `{"a":{"x":0.25,"y":true},"b":[1,"x"]}`, string(first))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(String(`a<b>&c`))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonical_ControlEscapes(t *testing.T) {
	got, err := MarshalCanonical(String("line\nquote\"back\\"))
	require.NoError(t, err)
	assert.Equal(t, `"line\nquote\"back\\"`, string(got))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Number(math.NaN()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")

	_, err = MarshalCanonical(math.Inf(1))
	require.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(Null{})
	require.Error(t, err)

	_, err = MarshalCanonical(nil)
	require.Error(t, err)
}

func TestMarshalCanonical_GoMaps(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"count": 16,
		"name":  "ring",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":16,"name":"ring"}`, string(got))
}

func TestCompareUTF16_SupplementaryPlane(t *testing.T) {
	// U+FF61 (halfwidth ideographic full stop) encodes as a single code
	// unit 0xFF61; U+10000 encodes as surrogate pair starting 0xD800.
	// UTF-16 order puts the surrogate pair first, byte order does not.
	assert.Equal(t, -1, compareUTF16("\U00010000", "｡"))
	assert.Equal(t, 1, compareUTF16("｡", "\U00010000"))
	assert.Equal(t, 0, compareUTF16("abc", "abc"))
}
