package schema

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
)

// FromDump describes every table of a parsed dump, sorted by name.
func FromDump(db *dump.Database) *Schema {
	tables := make([]Table, 0, db.Len())
	for _, name := range db.Names() {
		t := db.Tables[name]
		tables = append(tables, describeTable(t))
	}
	return &Schema{Tables: tables}
}

func describeTable(t *dump.Table) Table {
	columns := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		attrs := strings.ToUpper(c.Attributes)
		columns = append(columns, Column{
			Name:       c.Name,
			SourceType: c.Type,
			DataType:   MapType(c.Type),
			Attributes: c.Attributes,
			IsNullable: !strings.Contains(attrs, "NOT NULL"),
			IsPrimary:  strings.Contains(attrs, "AUTO_INCREMENT") || strings.Contains(attrs, "PRIMARY KEY"),
		})
	}
	return Table{Name: t.Name, Columns: columns, RowCount: len(t.Rows)}
}

// MapType maps a declared MySQL type such as "int(11)" or "varchar(255)"
// to the PostgreSQL type it is staged as. Unknown types stage as text.
func MapType(mysqlType string) string {
	base := strings.ToLower(strings.TrimSpace(mysqlType))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}

	switch base {
	case "tinyint", "smallint", "year":
		return "smallint"
	case "mediumint", "int", "integer":
		return "integer"
	case "bigint":
		return "bigint"
	case "decimal", "numeric", "dec", "fixed":
		return "numeric"
	case "float", "double", "real":
		return "double precision"
	case "char", "varchar":
		return "varchar"
	case "date":
		return "date"
	case "datetime", "timestamp":
		return "timestamp"
	case "json":
		return "jsonb"
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return "bytea"
	default:
		return "text"
	}
}

// integerBits is the width of each staged integer type.
var integerBits = map[string]int{
	"smallint": 16,
	"integer":  32,
	"bigint":   64,
}

// temporalLayouts are the formats mysqldump writes date and time values in.
var temporalLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// convertValue turns a dump value into the Go value pgx encodes for a
// column of the given PostgreSQL type.
func convertValue(v dump.Value, dataType string) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	f, isNum := v.Float()
	s, _ := v.Str()

	switch dataType {
	case "smallint", "integer", "bigint":
		bits := integerBits[dataType]
		if !isNum {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
			if errors.Is(err, strconv.ErrRange) {
				return nil, fmt.Errorf("%q is out of range for %s", s, dataType)
			}
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", s)
			}
			return n, nil
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		// 2^(bits-1) is exact in float64; int64(f) is undefined at or past it.
		limit := math.Ldexp(1, bits-1)
		if f < -limit || f >= limit {
			return nil, fmt.Errorf("%v is out of range for %s", f, dataType)
		}
		return int64(f), nil

	case "numeric", "double precision":
		if isNum {
			return f, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return parsed, nil

	case "date", "timestamp":
		if isNum {
			return nil, fmt.Errorf("%v is not a date", f)
		}
		// MySQL zero dates have no PostgreSQL equivalent.
		if strings.HasPrefix(s, "0000-00-00") {
			return nil, nil
		}
		for _, layout := range temporalLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%q is not a date", s)

	case "bytea":
		if isNum {
			return []byte(v.String()), nil
		}
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			b, err := hex.DecodeString(s[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex literal: %w", err)
			}
			return b, nil
		}
		return []byte(s), nil

	default:
		return v.String(), nil
	}
}
