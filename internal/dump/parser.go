package dump

import (
	"regexp"
	"strings"
)

var (
	createTableRe = regexp.MustCompile("(?is)CREATE TABLE `(\\w+)` \\((.*?)\\) ENGINE")
	columnLineRe  = regexp.MustCompile("^`(\\w+)`\\s+(\\w+(?:\\([^)]+\\))?)\\s*(.*)")
	insertRe      = regexp.MustCompile("(?is)INSERT INTO `(\\w+)` VALUES\\s*(.*?);")
)

// Parse reads every table definition and its rows from a dump.
// The result depends only on text; the same input always yields
// an equal Database.
func Parse(text string) *Database {
	structures := extractStructures(text)

	db := &Database{Tables: make(map[string]*Table, len(structures))}
	for name, columns := range structures {
		db.Tables[name] = &Table{Name: name, Columns: columns, Rows: []Row{}}
	}

	// Structures must exist before rows can be attached.
	extractRows(text, db.Tables)
	return db
}

// extractStructures maps each CREATE TABLE name to its column list.
// A later definition of the same name replaces the earlier one.
func extractStructures(text string) map[string][]Column {
	structures := make(map[string][]Column)
	for _, m := range createTableRe.FindAllStringSubmatch(text, -1) {
		structures[m[1]] = parseColumns(m[2])
	}
	return structures
}

// parseColumns reads column definitions from the body of a CREATE TABLE.
// Key and constraint lines do not start with a backtick and are skipped,
// as are column lines that do not have the name/type shape.
func parseColumns(body string) []Column {
	columns := make([]Column, 0, 8)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "`") {
			continue
		}
		m := columnLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		columns = append(columns, Column{
			Name:       m[1],
			Type:       m[2],
			Attributes: strings.TrimSpace(m[3]),
		})
	}
	return columns
}

// extractRows appends the tuples of every INSERT INTO statement to the
// matching table, in the order the statements appear.
func extractRows(text string, tables map[string]*Table) {
	for _, m := range insertRe.FindAllStringSubmatch(text, -1) {
		table, ok := tables[m[1]]
		if !ok {
			continue
		}
		scanTuples(m[2], func(row Row) {
			table.Rows = append(table.Rows, row)
		})
	}
}
