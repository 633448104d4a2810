package schema

import (
	"fmt"
	"strings"
)

// TypeInfo represents a PostgreSQL data type with metadata.
type TypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// AllowedTypes is the canonical list of PostgreSQL types a dumped column
// can be staged as.
var AllowedTypes = []TypeInfo{
	// String types
	{Name: "text", Description: "Variable length string", Category: "String"},
	{Name: "varchar", Description: "Variable length (unlimited)", Category: "String"},

	// Numeric types
	{Name: "smallint", Description: "16-bit integer", Category: "Numeric"},
	{Name: "integer", Description: "32-bit integer", Category: "Numeric"},
	{Name: "bigint", Description: "64-bit integer", Category: "Numeric"},
	{Name: "numeric", Description: "Decimal number", Category: "Numeric"},
	{Name: "double precision", Description: "64-bit floating point", Category: "Numeric"},

	// Date/Time types
	{Name: "date", Description: "Date only", Category: "Date/Time"},
	{Name: "timestamp", Description: "Date and time", Category: "Date/Time"},

	// JSON types
	{Name: "jsonb", Description: "Binary JSON data", Category: "JSON"},

	// Binary
	{Name: "bytea", Description: "Binary data", Category: "Binary"},
}

// allowedTypesMap is built from AllowedTypes for O(1) lookup
var allowedTypesMap = buildAllowedTypesMap()

func buildAllowedTypesMap() map[string]bool {
	m := make(map[string]bool)
	for _, t := range AllowedTypes {
		m[t.Name] = true
	}
	return m
}

// ValidIdentifier checks if a name can be staged as a PostgreSQL identifier.
// Dump names are backtick-quoted word characters, so mixed case is allowed;
// the name is always quoted when used.
func ValidIdentifier(name string) bool {
	if name == "" || len(name) > 63 {
		return false
	}
	for i, r := range name {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 {
			if !letter {
				return false
			}
		} else if !letter && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// sanitizeIdentifier ensures the identifier is safe for SQL.
// Escapes double quotes and wraps in quotes to prevent injection.
func sanitizeIdentifier(name string) string {
	// Escape any double quotes by doubling them (SQL standard)
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// IsValidType checks if the given type name is in the allowed types list.
func IsValidType(t string) bool {
	return allowedTypesMap[t]
}

// sanitizeType validates and returns a safe type name.
// Returns error if type is not in allowed list.
func sanitizeType(t string) (string, error) {
	if allowedTypesMap[t] {
		return t, nil
	}
	return "", fmt.Errorf("unsupported column type %q", t)
}

// BuildCreateSchemaDDL constructs a CREATE SCHEMA IF NOT EXISTS statement.
func BuildCreateSchemaDDL(schemaName string) (string, error) {
	if !ValidIdentifier(schemaName) {
		return "", fmt.Errorf("invalid schema name %q", schemaName)
	}
	return "CREATE SCHEMA IF NOT EXISTS " + sanitizeIdentifier(schemaName), nil
}

// BuildDropTableDDL constructs a DROP TABLE IF EXISTS statement.
func BuildDropTableDDL(schemaName, tableName string) (string, error) {
	qualified, err := qualifiedName(schemaName, tableName)
	if err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + qualified, nil
}

// BuildCreateTableDDL constructs a CREATE TABLE statement for a staged table.
// Staged columns carry no constraints: dump data is loaded as-is.
func BuildCreateTableDDL(schemaName string, table Table) (string, error) {
	qualified, err := qualifiedName(schemaName, table.Name)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		if !ValidIdentifier(col.Name) {
			return "", fmt.Errorf("invalid column name %q in table %q", col.Name, table.Name)
		}
		safeType, err := sanitizeType(col.DataType)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Name, err)
		}
		parts = append(parts, sanitizeIdentifier(col.Name)+" "+safeType)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(parts, ", ")), nil
}

func qualifiedName(schemaName, tableName string) (string, error) {
	if !ValidIdentifier(schemaName) {
		return "", fmt.Errorf("invalid schema name %q", schemaName)
	}
	if !ValidIdentifier(tableName) {
		return "", fmt.Errorf("invalid table name %q", tableName)
	}
	return sanitizeIdentifier(schemaName) + "." + sanitizeIdentifier(tableName), nil
}
