package dialect

import (
	"strings"
)

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

// stripArguments removes a parenthesized argument list, "varchar(64)" -> "varchar".
func stripArguments(sqlType string) string {
	if i := strings.Index(sqlType, "("); i >= 0 {
		return strings.TrimSpace(sqlType[:i])
	}
	return sqlType
}
