package dialect

import (
	"strings"
)

// SQLiteDialect reads the catalog through the pragma table-valued functions.
// SQLite has a single schema per connection ("main"), which the queries only
// bind to keep the one-argument contract.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite"
}

func (d *SQLiteDialect) GetTablesQuery(schema string) string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND ? IS NOT NULL ORDER BY name`
}

func (d *SQLiteDialect) GetColumnsQuery(schema string) string {
	return `SELECT
    m.name,
    p.name,
    p.type,
    p.type,
    NULL,
    CASE WHEN p."notnull" = 0 AND p.pk = 0 THEN 'YES' ELSE 'NO' END,
    CASE WHEN p.pk > 0 THEN 'PRI' ELSE '' END,
    CASE WHEN p.pk = 1 AND lower(p.type) = 'integer' THEN 'auto_increment' ELSE '' END,
    '',
    NULL
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND ? IS NOT NULL
ORDER BY m.name, p.cid`
}

func (d *SQLiteDialect) GetForeignKeysQuery(schema string) string {
	// Foreign keys are unnamed in SQLite. The '#'-prefixed id only groups the
	// columns of one constraint; the analyzer drops it so names follow convention.
	return `SELECT m.name, '#' || f.id, f."from", f."table", f."to", f.on_delete
FROM sqlite_master m
JOIN pragma_foreign_key_list(m.name) f
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND ? IS NOT NULL
ORDER BY m.name, f.id, f.seq`
}

func (d *SQLiteDialect) GetIndexesQuery(schema string) string {
	return `SELECT m.name, il.name, ii.name, CASE WHEN il."unique" = 1 THEN 'UNIQUE' ELSE '' END
FROM sqlite_master m
JOIN pragma_index_list(m.name) il
JOIN pragma_index_info(il.name) ii
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND il.origin = 'c' AND ? IS NOT NULL
ORDER BY m.name, il.name, ii.seqno`
}

func (d *SQLiteDialect) CurrentSchemaQuery() string {
	return `SELECT 'main'`
}

func (d *SQLiteDialect) NormalizeType(sqlType string) string {
	t := stripArguments(DefaultNormalizeType(sqlType))
	switch {
	case t == "integer":
		return "int"
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), t == "text":
		return "varchar"
	case t == "real":
		return "double"
	}
	return t
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}
