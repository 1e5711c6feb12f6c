package schema

import "strings"

// valueTypes are the CLR types that need a ? suffix to accept null.
var valueTypes = map[string]bool{
	"bool": true, "byte": true, "sbyte": true, "short": true, "ushort": true,
	"int": true, "uint": true, "long": true, "ulong": true, "float": true,
	"double": true, "decimal": true, "char": true,
	"DateTime": true, "DateTimeOffset": true, "DateOnly": true, "TimeOnly": true,
	"TimeSpan": true, "Guid": true,
}

// ClrTypeFor maps a normalized store type to the CLR type EF Core scaffolds for it.
func ClrTypeFor(baseType string) string {
	t := strings.ToLower(baseType)
	switch t {
	case "int", "integer", "int4", "mediumint", "serial":
		return "int"
	case "bigint", "int8", "bigserial", "long":
		return "long"
	case "smallint", "int2", "smallserial":
		return "short"
	case "tinyint":
		return "byte"
	case "bit", "bool", "boolean":
		return "bool"
	case "decimal", "numeric", "money", "smallmoney", "number":
		return "decimal"
	case "float", "real", "float4":
		return "float"
	case "double", "double precision", "float8":
		return "double"
	case "date", "datetime", "datetime2", "smalldatetime", "timestamp", "timestamp without time zone":
		return "DateTime"
	case "datetimeoffset", "timestamptz", "timestamp with time zone":
		return "DateTimeOffset"
	case "time", "interval":
		return "TimeSpan"
	case "uuid", "uniqueidentifier":
		return "Guid"
	case "blob", "longblob", "mediumblob", "tinyblob", "binary", "varbinary", "bytea", "image", "raw":
		return "byte[]"
	}
	return "string"
}

// IsValueType reports whether the CLR type is a value type.
func IsValueType(clrType string) bool {
	if i := strings.LastIndex(clrType, "."); i >= 0 {
		clrType = clrType[i+1:]
	}
	return valueTypes[clrType]
}

// NullableClrType returns the CLR type as used for a property of the column.
func (c *Column) NullableClrType() string {
	if c.IsNullable && IsValueType(c.ClrType) {
		return c.ClrType + "?"
	}
	return c.ClrType
}
