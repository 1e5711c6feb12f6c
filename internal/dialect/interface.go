package dialect

// Dialect abstracts database-specific schema introspection.
//
// Every query takes exactly one bind parameter, the schema name returned by
// GetSchemaName, and returns rows in the column layout documented on the method.
type Dialect interface {
	// DriverName is the database/sql driver the dialect talks to.
	DriverName() string

	// GetTablesQuery returns (table_name).
	GetTablesQuery(schema string) string
	// GetColumnsQuery returns (table, column, data_type, column_type, length,
	// is_nullable, column_key, extra, is_unique, comment).
	GetColumnsQuery(schema string) string
	// GetForeignKeysQuery returns (table, constraint, column, ref_table,
	// ref_column, delete_rule) ordered by constraint and column position.
	GetForeignKeysQuery(schema string) string
	// GetIndexesQuery returns (table, index, column, is_unique) for secondary
	// indexes, ordered by index and column position.
	GetIndexesQuery(schema string) string

	// CurrentSchemaQuery selects the schema the connection works in.
	CurrentSchemaQuery() string

	// Helpers
	NormalizeType(sqlType string) string
	GetSchemaName(input string) string
}
