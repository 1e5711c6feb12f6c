package schema_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"plugin-migrate/internal/dialect"
	"plugin-migrate/internal/schema"
)

func TestSortTablesByFKCount_ComplexCircular(t *testing.T) {
	// A -> B -> C -> D -> E -> A forms a cycle, F references E, G stands alone.
	tables := []*schema.Table{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"C"}},
		{Name: "C", Dependencies: []string{"D"}},
		{Name: "D", Dependencies: []string{"E"}},
		{Name: "E", Dependencies: []string{"A"}},
		{Name: "F", Dependencies: []string{"E"}},
		{Name: "G", Dependencies: []string{}},
	}

	sorted := schema.SortTablesByFKCount(tables)
	require.Len(t, sorted, len(tables))

	visited := make(map[string]bool)
	for _, tbl := range sorted {
		visited[tbl.Name] = true
	}
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		assert.True(t, visited[name], "table %s missing from sorted list", name)
	}
	assert.Equal(t, "G", sorted[0].Name)
}

func TestSortTablesByFKCount_Simple(t *testing.T) {
	tables := []*schema.Table{
		{Name: "OrderItems", Dependencies: []string{"Orders"}},
		{Name: "Orders", Dependencies: []string{"Users"}},
		{Name: "Users", Dependencies: []string{}},
	}

	sorted := schema.SortTablesByFKCount(tables)

	require.Len(t, sorted, 3)
	assert.Equal(t, "Users", sorted[0].Name)
	assert.Equal(t, "Orders", sorted[1].Name)
	assert.Equal(t, "OrderItems", sorted[2].Name)
}

func TestSortTablesByFKCount_ExternalDependency(t *testing.T) {
	// Shared tables live outside the model and never block ordering.
	tables := []*schema.Table{
		{Name: "Posts", Dependencies: []string{"Authors"}},
		{Name: "Authors", Dependencies: []string{"AspNetUsers"}},
	}

	sorted := schema.SortTablesByFKCount(tables)

	require.Len(t, sorted, 2)
	assert.Equal(t, "Authors", sorted[0].Name)
	assert.Equal(t, "Posts", sorted[1].Name)
}

func TestSortTablesByFKCount_Deterministic(t *testing.T) {
	build := func() []*schema.Table {
		return []*schema.Table{
			{Name: "A", Dependencies: []string{"B"}},
			{Name: "B", Dependencies: []string{"A"}},
			{Name: "C", Dependencies: []string{"A"}},
		}
	}
	names := func(tables []*schema.Table) []string {
		var out []string
		for _, tbl := range tables {
			out = append(out, tbl.Name)
		}
		return out
	}

	assert.Equal(t, names(schema.SortTablesByFKCount(build())), names(schema.SortTablesByFKCount(build())))
}

func openSQLite(t *testing.T, statements ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func TestAnalyzeSQLite(t *testing.T) {
	db := openSQLite(t,
		`CREATE TABLE Orders (
			Id INTEGER PRIMARY KEY,
			UserId INTEGER NOT NULL REFERENCES Users(Id) ON DELETE CASCADE,
			Total DECIMAL(10,2)
		)`,
		`CREATE TABLE Users (
			Id INTEGER PRIMARY KEY,
			Name VARCHAR(64) NOT NULL,
			Email TEXT
		)`,
		`CREATE INDEX IX_Orders_UserId ON Orders(UserId)`,
		`CREATE UNIQUE INDEX IX_Users_Email ON Users(Email)`,
	)

	m, err := schema.Analyze(context.Background(), db, dialect.GetDialect("sqlite"), "")
	require.NoError(t, err)
	require.Len(t, m.Tables, 2)
	assert.Equal(t, "Users", m.Tables[0].Name)
	assert.Equal(t, "Orders", m.Tables[1].Name)

	users := m.Table("Users")
	require.NotNil(t, users)
	require.Len(t, users.Columns, 3)

	id := users.Column("Id")
	assert.True(t, id.IsPK)
	assert.True(t, id.IsAutoInc)
	assert.Equal(t, "int", id.ClrType)

	name := users.Column("Name")
	assert.Equal(t, "varchar", name.DataType)
	assert.Equal(t, 64, name.Length)
	assert.False(t, name.IsNullable)
	assert.Equal(t, "string", name.ClrType)

	assert.True(t, users.Column("Email").IsNullable)
	require.NotNil(t, users.PrimaryKey)
	assert.Equal(t, "PK_Users", users.PrimaryKey.Name)
	assert.Equal(t, []string{"Id"}, users.PrimaryKey.Columns)

	email := users.Index("IX_Users_Email")
	require.NotNil(t, email)
	assert.True(t, email.Unique)
	assert.Equal(t, []string{"Email"}, email.Columns)

	orders := m.Table("Orders")
	require.NotNil(t, orders)
	assert.Equal(t, 0, orders.Column("Total").Length)
	assert.Equal(t, []string{"Users"}, orders.Dependencies)

	require.Len(t, orders.ForeignKeys, 1)
	fk := orders.ForeignKeys[0]
	assert.Equal(t, "FK_Orders_Users_UserId", fk.Name)
	assert.Equal(t, []string{"UserId"}, fk.Columns)
	assert.Equal(t, "Users", fk.RefTable)
	assert.Equal(t, []string{"Id"}, fk.RefColumns)
	assert.Equal(t, "Cascade", fk.OnDelete)

	idx := orders.Index("IX_Orders_UserId")
	require.NotNil(t, idx)
	assert.False(t, idx.Unique)

	require.NoError(t, m.Validate())
}

func TestAnalyzeSQLiteEmpty(t *testing.T) {
	db := openSQLite(t)

	m, err := schema.Analyze(context.Background(), db, dialect.GetDialect("sqlite"), "main")
	require.NoError(t, err)
	assert.Empty(t, m.Tables)
}
