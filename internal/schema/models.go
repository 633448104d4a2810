package schema

// Column represents a single column of a dumped table.
type Column struct {
	Name       string `json:"name"`
	SourceType string `json:"sourceType"`
	DataType   string `json:"dataType"`
	Attributes string `json:"attributes,omitempty"`
	IsNullable bool   `json:"isNullable"`
	IsPrimary  bool   `json:"isPrimary"`
}

// Table represents a dumped table with its columns and row count.
type Table struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int      `json:"rowCount"`
}

// Schema represents every table found in one dump.
type Schema struct {
	Tables []Table `json:"tables"`
}
