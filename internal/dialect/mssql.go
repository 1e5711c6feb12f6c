package dialect

import "strings"

type MSSQLDialect struct{}

func (d *MSSQLDialect) DriverName() string {
	return "sqlserver"
}

func (d *MSSQLDialect) GetTablesQuery(schema string) string {
	return `SELECT t.name FROM sys.tables t JOIN sys.schemas s ON t.schema_id = s.schema_id WHERE s.name = @p1 AND t.is_ms_shipped = 0 ORDER BY t.name`
}

func (d *MSSQLDialect) GetColumnsQuery(schema string) string {
	// max_length is in bytes; n-types store two per character and -1 means MAX.
	return `
SELECT
    t.name,
    c.name,
    ty.name,
    ty.name,
    CASE
        WHEN c.max_length = -1 THEN NULL
        WHEN ty.name IN ('nchar', 'nvarchar') THEN c.max_length / 2
        ELSE c.max_length
    END,
    CASE WHEN c.is_nullable = 1 THEN 'YES' ELSE 'NO' END,
    CASE WHEN pk.column_id IS NOT NULL THEN 'PRI' ELSE '' END,
    CASE WHEN c.is_identity = 1 THEN 'identity' ELSE dc.definition END,
    CASE WHEN uq.column_id IS NOT NULL THEN 'UNIQUE' ELSE '' END,
    CAST(ep.value AS NVARCHAR(MAX))
FROM sys.columns c
JOIN sys.tables t ON c.object_id = t.object_id
JOIN sys.schemas s ON t.schema_id = s.schema_id
JOIN sys.types ty ON c.user_type_id = ty.user_type_id
LEFT JOIN sys.default_constraints dc ON c.default_object_id = dc.object_id
LEFT JOIN (
    SELECT ic.object_id, ic.column_id
    FROM sys.index_columns ic
    JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
    WHERE i.is_primary_key = 1
) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
LEFT JOIN (
    SELECT ic.object_id, ic.column_id
    FROM sys.index_columns ic
    JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
    WHERE i.is_unique = 1 AND i.is_primary_key = 0
    AND (SELECT COUNT(*) FROM sys.index_columns x WHERE x.object_id = i.object_id AND x.index_id = i.index_id AND x.is_included_column = 0) = 1
) uq ON c.object_id = uq.object_id AND c.column_id = uq.column_id
LEFT JOIN sys.extended_properties ep
    ON ep.major_id = c.object_id
    AND ep.minor_id = c.column_id
    AND ep.class = 1
    AND ep.name = 'MS_Description'
WHERE s.name = @p1
ORDER BY t.name, c.column_id`
}

func (d *MSSQLDialect) GetForeignKeysQuery(schema string) string {
	return `SELECT KCU1.TABLE_NAME, KCU1.CONSTRAINT_NAME, KCU1.COLUMN_NAME, KCU2.TABLE_NAME AS REF_TABLE, KCU2.COLUMN_NAME AS REF_COLUMN, RC.DELETE_RULE
FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS RC
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU1 ON RC.CONSTRAINT_NAME = KCU1.CONSTRAINT_NAME
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU2 ON RC.UNIQUE_CONSTRAINT_NAME = KCU2.CONSTRAINT_NAME AND KCU2.ORDINAL_POSITION = KCU1.ORDINAL_POSITION
WHERE KCU1.TABLE_SCHEMA = @p1
ORDER BY KCU1.TABLE_NAME, KCU1.CONSTRAINT_NAME, KCU1.ORDINAL_POSITION`
}

func (d *MSSQLDialect) GetIndexesQuery(schema string) string {
	return `SELECT t.name, idx.name, col.name, CASE WHEN idx.is_unique = 1 THEN 'UNIQUE' ELSE '' END
FROM sys.indexes idx
JOIN sys.index_columns ic ON idx.object_id = ic.object_id AND idx.index_id = ic.index_id
JOIN sys.columns col ON ic.object_id = col.object_id AND ic.column_id = col.column_id
JOIN sys.tables t ON idx.object_id = t.object_id
JOIN sys.schemas s ON t.schema_id = s.schema_id
WHERE s.name = @p1 AND idx.is_primary_key = 0 AND idx.is_unique_constraint = 0 AND idx.name IS NOT NULL AND ic.is_included_column = 0
ORDER BY t.name, idx.name, ic.key_ordinal`
}

func (d *MSSQLDialect) CurrentSchemaQuery() string {
	return `SELECT SCHEMA_NAME()`
}

func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch t {
	case "nvarchar", "nchar", "text", "ntext":
		return "varchar"
	case "bit":
		return "boolean"
	case "decimal", "numeric", "money", "smallmoney":
		return "decimal"
	case "float":
		return "double"
	case "real":
		return "float"
	case "datetime", "datetime2", "smalldatetime":
		return "datetime"
	case "uniqueidentifier":
		return "uniqueidentifier"
	case "image", "binary", "varbinary":
		return "blob"
	default:
		return t
	}
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}
