package dump

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single scalar decoded from an INSERT tuple.
// The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a textual value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload and whether v is a Number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Str returns the text payload and whether v is Text.
func (v Value) Str() (string, bool) {
	return v.text, v.kind == KindText
}

// Any returns the untyped view of v: nil, float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	default:
		return nil
	}
}

// String formats v for display. NULL prints as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return "NULL"
	}
}

// MarshalJSON encodes v as null, a JSON number or a JSON string.
// Infinite numbers have no JSON form and are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// numericLiteral matches the decimal literals a dump emits unquoted:
// optional sign, digits with optional fraction, optional exponent.
var numericLiteral = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// decodeValue converts one trimmed token from a tuple into a Value.
func decodeValue(token string) Value {
	if token == "NULL" {
		return Null()
	}

	if len(token) >= 2 {
		if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") {
			return Text(strings.ReplaceAll(token[1:len(token)-1], "''", "'"))
		}
		if strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
			return Text(strings.ReplaceAll(token[1:len(token)-1], `""`, `"`))
		}
	}

	if f, ok := parseNumber(token); ok {
		return Number(f)
	}

	return Text(token)
}

// parseNumber accepts the whole token as a number or rejects it.
// Magnitudes beyond float64 range saturate to ±Inf.
func parseNumber(token string) (float64, bool) {
	switch token {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if !numericLiteral.MatchString(token) {
		return 0, false
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		// ErrRange still yields ±Inf or 0, which is the value we want.
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}
