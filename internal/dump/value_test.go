package dump

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		token string
		want  Value
	}{
		{token: "NULL", want: Null()},
		{token: "null", want: Text("null")},
		{token: "'O''Brien'", want: Text("O'Brien")},
		{token: `"a ""b"""`, want: Text(`a "b"`)},
		{token: `'line\nbreak'`, want: Text(`line\nbreak`)},
		{token: "''", want: Text("")},
		{token: "'", want: Text("'")},
		{token: "42", want: Number(42)},
		{token: "-3.14", want: Number(-3.14)},
		{token: "+7", want: Number(7)},
		{token: ".5", want: Number(0.5)},
		{token: "5.", want: Number(5)},
		{token: "1e10", want: Number(1e10)},
		{token: "2.5E-3", want: Number(0.0025)},
		{token: "Infinity", want: Number(math.Inf(1))},
		{token: "-Infinity", want: Number(math.Inf(-1))},
		{token: "1e400", want: Number(math.Inf(1))},
		{token: "0x1F", want: Text("0x1F")},
		{token: "1_000", want: Text("1_000")},
		{token: "NaN", want: Text("NaN")},
		{token: "inf", want: Text("inf")},
		{token: "NOW()", want: Text("NOW()")},
		{token: "CURRENT_TIMESTAMP", want: Text("CURRENT_TIMESTAMP")},
		{token: "", want: Text("")},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeValue(tt.token))
		})
	}
}

func TestDecodeRow(t *testing.T) {
	tests := []struct {
		name  string
		tuple string
		want  Row
	}{
		{name: "mixed", tuple: "1,'a',NULL", want: Row{Number(1), Text("a"), Null()}},
		{name: "spaces trimmed", tuple: "  1 ,  'a b'  ", want: Row{Number(1), Text("a b")}},
		{name: "comma in string", tuple: "'a,b', 2", want: Row{Text("a,b"), Number(2)}},
		{name: "trailing comma", tuple: "1,2, ", want: Row{Number(1), Number(2)}},
		{name: "empty middle value", tuple: "1,,2", want: Row{Number(1), Text(""), Number(2)}},
		{name: "escaped quote then comma", tuple: `'a\',b',3`, want: Row{Text(`a\',b`), Number(3)}},
		{name: "empty", tuple: "", want: Row{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeRow(tt.tuple))
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	n := Number(2.5)
	f, ok := n.Float()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
	_, ok = n.Str()
	assert.False(t, ok)
	assert.Equal(t, KindNumber, n.Kind())
	assert.Equal(t, 2.5, n.Any())
	assert.Equal(t, "2.5", n.String())

	s := Text("hi")
	str, ok := s.Str()
	assert.True(t, ok)
	assert.Equal(t, "hi", str)
	assert.Equal(t, "hi", s.Any())

	var zero Value
	assert.True(t, zero.IsNull())
	assert.Nil(t, zero.Any())
	assert.Equal(t, "NULL", zero.String())
	assert.Equal(t, "null", KindNull.String())
}

func TestValue_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Row{Null(), Number(1.5), Text(`say "x"`), Number(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 1.5, "say \"x\"", "+Inf"]`, string(out))
}
