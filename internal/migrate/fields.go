package migrate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// field returns the value at position i, or NULL when the row is short.
func field(row dump.Row, i int) dump.Value {
	if i < len(row) {
		return row[i]
	}
	return dump.Null()
}

// text renders a value as a document string. NULL becomes "".
func text(v dump.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// textOr returns the text of v, or fallback when that text is empty or zero.
func textOr(v dump.Value, fallback string) string {
	if f, ok := v.Float(); ok && f == 0 {
		return fallback
	}
	if s := text(v); s != "" {
		return s
	}
	return fallback
}

// id reads a source primary or foreign key.
func id(v dump.Value) (int64, bool) {
	if f, ok := v.Float(); ok {
		return int64(f), true
	}
	if s, ok := v.Str(); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// slugify lowercases s and joins whitespace runs with dashes.
func slugify(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(s), "-")
}

// present returns the text of v unless it is empty or the literal "NULL".
func present(v dump.Value) (string, bool) {
	s := text(v)
	if s == "" || s == "NULL" {
		return "", false
	}
	return s, true
}
