package dump

import "strings"

// scanTuples walks the payload of a VALUES clause and calls emit with each
// decoded top-level tuple. Quoted strings are tracked so that parentheses,
// commas and quotes inside them never split a tuple.
//
// All delimiters are ASCII, so scanning bytes is safe for UTF-8 input.
func scanTuples(payload string, emit func(Row)) {
	var (
		buf      strings.Builder
		inString bool
		quote    byte
		depth    int
	)

	for i := 0; i < len(payload); i++ {
		c := payload[i]

		switch {
		case !inString && c == '(':
			depth++
			if depth == 1 {
				buf.Reset()
				continue
			}
			buf.WriteByte(c)

		case !inString && c == ')':
			depth--
			switch {
			case depth == 0:
				emit(decodeRow(buf.String()))
				buf.Reset()
			case depth < 0:
				// Stray closer between tuples.
				depth = 0
			default:
				buf.WriteByte(c)
			}

		case !inString && (c == '\'' || c == '"'):
			inString = true
			quote = c
			buf.WriteByte(c)

		case inString && c == quote:
			if i+1 < len(payload) && payload[i+1] == quote {
				buf.WriteByte(c)
				buf.WriteByte(c)
				i++
				continue
			}
			inString = false
			buf.WriteByte(c)

		case inString && c == '\\' && i+1 < len(payload):
			buf.WriteByte(c)
			buf.WriteByte(payload[i+1])
			i++

		default:
			if depth > 0 {
				buf.WriteByte(c)
			}
		}
	}
}

// decodeRow splits the text of one tuple on commas outside quoted strings
// and decodes each piece.
func decodeRow(tuple string) Row {
	var (
		buf      strings.Builder
		inString bool
		quote    byte
	)
	row := make(Row, 0, 8)

	for i := 0; i < len(tuple); i++ {
		c := tuple[i]

		switch {
		case !inString && c == ',':
			row = append(row, decodeValue(strings.TrimSpace(buf.String())))
			buf.Reset()
			continue

		case !inString && (c == '\'' || c == '"'):
			inString = true
			quote = c

		case inString && c == quote:
			if i+1 < len(tuple) && tuple[i+1] == quote {
				buf.WriteByte(c)
				buf.WriteByte(c)
				i++
				continue
			}
			inString = false

		case inString && c == '\\' && i+1 < len(tuple):
			buf.WriteByte(c)
			buf.WriteByte(tuple[i+1])
			i++
			continue
		}

		buf.WriteByte(c)
	}

	if last := strings.TrimSpace(buf.String()); last != "" {
		row = append(row, decodeValue(last))
	}
	return row
}
