// Package dump reconstructs tables from the text of a MySQL logical dump.
//
// Parse performs two passes over the dump: the CREATE TABLE blocks are read
// first so every table has a column schema, then the INSERT INTO statements
// attach rows to the tables they name. INSERTs for tables without a
// CREATE TABLE are dropped. Parsing never fails; malformed input degrades
// to partial results.
package dump

import "sort"

// Column describes one column of a CREATE TABLE block.
type Column struct {
	Name string `json:"name"`
	// Type is the declared type including parameters, e.g. "varchar(255)".
	Type string `json:"type"`
	// Attributes is the rest of the definition line, kept verbatim.
	Attributes string `json:"attributes"`
}

// Row is one INSERT tuple, positionally aligned to the table's columns.
type Row []Value

// Table is a table reconstructed from the dump.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Database holds every table found in one dump, keyed by name.
type Database struct {
	Tables map[string]*Table `json:"tables"`
}

// Table returns the named table.
func (d *Database) Table(name string) (*Table, bool) {
	t, ok := d.Tables[name]
	return t, ok
}

// Len returns the number of tables.
func (d *Database) Len() int {
	return len(d.Tables)
}

// Names returns the table names in sorted order.
func (d *Database) Names() []string {
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats summarizes a parsed dump.
type Stats struct {
	Tables  int
	Columns int
	Rows    int
}

// Stats counts tables, columns and rows across the database.
func (d *Database) Stats() Stats {
	s := Stats{Tables: len(d.Tables)}
	for _, t := range d.Tables {
		s.Columns += len(t.Columns)
		s.Rows += len(t.Rows)
	}
	return s
}
