package render_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugin-migrate/internal/codegen"
	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/render"
)

func renderOp(t *testing.T, driver string, op operation.Operation) string {
	t.Helper()
	b := codegen.NewIndentedBuilder()
	require.NoError(t, render.New(driver).Render(b, op))
	return b.String()
}

func TestRenderCreateTable(t *testing.T) {
	op := operation.CreateTable{
		Name: "Users",
		Columns: []operation.ColumnDefinition{
			{Name: "Id", ClrType: "int", StoreType: "int", AutoIncrement: true},
			{Name: "Name", ClrType: "string", StoreType: "nvarchar(64)", MaxLength: 64},
		},
		PrimaryKey: &operation.PrimaryKey{Name: "PK_Users", Columns: []string{"Id"}},
	}

	expected := `migrationBuilder.CreateTable(
    name: "Users",
    columns: table => new
    {
        Id = table.Column<int>(type: "int", nullable: false)
            .Annotation("SqlServer:Identity", "1, 1"),
        Name = table.Column<string>(type: "nvarchar(64)", maxLength: 64, nullable: false)
    },
    constraints: table =>
    {
        table.PrimaryKey("PK_Users", x => x.Id);
    });
`
	assert.Equal(t, expected, renderOp(t, "sqlserver", op))
}

func TestRenderCreateTableWithForeignKey(t *testing.T) {
	op := operation.CreateTable{
		Name:   "Orders",
		Schema: "shop",
		Columns: []operation.ColumnDefinition{
			{Name: "Id", ClrType: "Guid", StoreType: "uuid"},
			{Name: "UserId", ClrType: "int", StoreType: "integer"},
			{Name: "class", ClrType: "string", StoreType: "text", Nullable: true},
		},
		PrimaryKey: &operation.PrimaryKey{Name: "PK_Orders", Columns: []string{"Id"}},
		ForeignKeys: []operation.AddForeignKey{{
			Name:             "FK_Orders_Users_UserId",
			Table:            "Orders",
			Columns:          []string{"UserId"},
			PrincipalTable:   "Users",
			PrincipalColumns: []string{"Id"},
			OnDelete:         operation.Cascade,
		}},
	}

	expected := `migrationBuilder.CreateTable(
    name: "Orders",
    schema: "shop",
    columns: table => new
    {
        Id = table.Column<Guid>(type: "uuid", nullable: false),
        UserId = table.Column<int>(type: "integer", nullable: false),
        @class = table.Column<string>(name: "class", type: "text", nullable: true)
    },
    constraints: table =>
    {
        table.PrimaryKey("PK_Orders", x => x.Id);
        table.ForeignKey(
            name: "FK_Orders_Users_UserId",
            column: x => x.UserId,
            principalTable: "Users",
            principalColumn: "Id",
            onDelete: ReferentialAction.Cascade);
    });
`
	assert.Equal(t, expected, renderOp(t, "postgres", op))
}

func TestRenderCreateTableWithoutConstraints(t *testing.T) {
	op := operation.CreateTable{
		Name:    "Log",
		Comment: "Audit log",
		Columns: []operation.ColumnDefinition{{Name: "Line", ClrType: "string", StoreType: "text"}},
	}

	expected := `migrationBuilder.CreateTable(
    name: "Log",
    columns: table => new
    {
        Line = table.Column<string>(type: "text", nullable: false)
    },
    comment: "Audit log");
`
	assert.Equal(t, expected, renderOp(t, "", op))
}

func TestRenderSimpleOperations(t *testing.T) {
	tests := []struct {
		name     string
		op       operation.Operation
		expected string
	}{{
		name: "drop table",
		op:   operation.DropTable{Name: "Users", Schema: "dbo"},
		expected: `migrationBuilder.DropTable(
    name: "Users",
    schema: "dbo");
`,
	}, {
		name: "add foreign key",
		op: operation.AddForeignKey{
			Name: "FK_Orders_Users_A_B", Table: "Orders", Columns: []string{"A", "B"},
			PrincipalTable: "Users", PrincipalColumns: []string{"X", "Y"},
		},
		expected: `migrationBuilder.AddForeignKey(
    name: "FK_Orders_Users_A_B",
    table: "Orders",
    columns: new[] { "A", "B" },
    principalTable: "Users",
    principalColumns: new[] { "X", "Y" });
`,
	}, {
		name: "drop foreign key",
		op:   operation.DropForeignKey{Name: "FK_Orders_Users_UserId", Table: "Orders"},
		expected: `migrationBuilder.DropForeignKey(
    name: "FK_Orders_Users_UserId",
    table: "Orders");
`,
	}, {
		name: "create unique index",
		op:   operation.CreateIndex{Name: "IX_Users_Email", Table: "Users", Columns: []string{"Email"}, Unique: true},
		expected: `migrationBuilder.CreateIndex(
    name: "IX_Users_Email",
    table: "Users",
    column: "Email",
    unique: true);
`,
	}, {
		name: "drop index",
		op:   operation.DropIndex{Name: "IX_Users_Email", Table: "Users"},
		expected: `migrationBuilder.DropIndex(
    name: "IX_Users_Email",
    table: "Users");
`,
	}, {
		name: "add column",
		op: operation.AddColumn{Table: "Users", Column: operation.ColumnDefinition{
			Name: "CreatedAt", ClrType: "DateTime", StoreType: "datetime2", DefaultSQL: "GETUTCDATE()",
		}},
		expected: `migrationBuilder.AddColumn<DateTime>(
    name: "CreatedAt",
    table: "Users",
    type: "datetime2",
    nullable: false,
    defaultValueSql: "GETUTCDATE()");
`,
	}, {
		name: "drop column",
		op:   operation.DropColumn{Name: "CreatedAt", Table: "Users"},
		expected: `migrationBuilder.DropColumn(
    name: "CreatedAt",
    table: "Users");
`,
	}, {
		name: "alter column",
		op: operation.AlterColumn{
			Table:     "Users",
			Column:    operation.ColumnDefinition{Name: "Name", ClrType: "string", StoreType: "nvarchar(128)", MaxLength: 128},
			OldColumn: operation.ColumnDefinition{Name: "Name", ClrType: "string", StoreType: "nvarchar(64)", MaxLength: 64, Nullable: true},
		},
		expected: `migrationBuilder.AlterColumn<string>(
    name: "Name",
    table: "Users",
    type: "nvarchar(128)",
    maxLength: 128,
    nullable: false,
    oldClrType: typeof(string),
    oldType: "nvarchar(64)",
    oldMaxLength: 64,
    oldNullable: true);
`,
	}, {
		name:     "sql",
		op:       operation.SQL{Statement: `UPDATE "Users" SET Name = 'x'`},
		expected: "migrationBuilder.Sql(\"UPDATE \\\"Users\\\" SET Name = 'x'\");\n",
	}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, renderOp(t, "sqlserver", test.op))
		})
	}
}

func TestRenderAddColumnIdentity(t *testing.T) {
	op := operation.AddColumn{Table: "T", Column: operation.ColumnDefinition{
		Name: "Id", ClrType: "long", StoreType: "INTEGER", AutoIncrement: true,
	}}

	expected := `migrationBuilder.AddColumn<long>(
    name: "Id",
    table: "T",
    type: "INTEGER",
    nullable: false)
    .Annotation("Sqlite:Autoincrement", true);
`
	assert.Equal(t, expected, renderOp(t, "sqlite", op))
}

func TestRenderInsertDataShapes(t *testing.T) {
	tests := []struct {
		name     string
		op       operation.InsertData
		expected string
	}{{
		name: "scalar",
		op:   operation.InsertData{Table: "T", Columns: []string{"Id"}, Values: [][]any{{1}}},
		expected: `migrationBuilder.InsertData(
    table: "T",
    column: "Id",
    value: 1);
`,
	}, {
		name: "one column",
		op:   operation.InsertData{Table: "T", Columns: []string{"Id"}, Values: [][]any{{1}, {2}}},
		expected: `migrationBuilder.InsertData(
    table: "T",
    column: "Id",
    values: new object[] { 1, 2 });
`,
	}, {
		name: "one row",
		op:   operation.InsertData{Table: "T", Columns: []string{"Id", "Name"}, Values: [][]any{{1, "a"}}},
		expected: `migrationBuilder.InsertData(
    table: "T",
    columns: new[] { "Id", "Name" },
    values: new object[] { 1, "a" });
`,
	}, {
		name: "two dimensional",
		op: operation.InsertData{Table: "T", Columns: []string{"Id", "Name"}, Values: [][]any{
			{1, "a"},
			{2, nil},
		}},
		expected: `migrationBuilder.InsertData(
    table: "T",
    columns: new[] { "Id", "Name" },
    values: new object[,]
    {
        { 1, "a" },
        { 2, null }
    });
`,
	}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, renderOp(t, "", test.op))
		})
	}
}

func TestRenderDeleteAndUpdateData(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-3c1e-4b6e-9a39-2f1f8f3f2b10")
	del := operation.DeleteData{Table: "T", KeyColumns: []string{"Id"}, KeyValues: [][]any{{id}}}
	assert.Equal(t, `migrationBuilder.DeleteData(
    table: "T",
    keyColumn: "Id",
    keyValue: new Guid("6f1c2a52-3c1e-4b6e-9a39-2f1f8f3f2b10"));
`, renderOp(t, "", del))

	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	upd := operation.UpdateData{
		Table: "T", KeyColumns: []string{"Id"}, KeyValues: [][]any{{7}},
		Columns: []string{"SeenAt"}, Values: [][]any{{at}},
	}
	assert.Equal(t, `migrationBuilder.UpdateData(
    table: "T",
    keyColumn: "Id",
    keyValue: 7,
    column: "SeenAt",
    value: new DateTime(2024, 3, 1, 12, 30, 0, 0, DateTimeKind.Utc));
`, renderOp(t, "", upd))
}

func TestRenderFailures(t *testing.T) {
	r := render.New("")

	err := r.Render(codegen.NewIndentedBuilder(), operation.InsertData{
		Table: "T", Columns: []string{"A", "B"}, Values: [][]any{{1, 2}, {3}},
	})
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	err = r.Render(codegen.NewIndentedBuilder(), operation.InsertData{
		Table: "T", Columns: []string{"A"}, Values: [][]any{{struct{}{}}},
	})
	assert.True(t, errors.Is(err, errors.NotSupported), "got %v", err)

	err = r.Render(codegen.NewIndentedBuilder(), operation.UpdateData{
		Table: "T", KeyColumns: []string{"Id"}, KeyValues: [][]any{{1}, {2}},
		Columns: []string{"A"}, Values: [][]any{{1}},
	})
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	err = r.Render(codegen.NewIndentedBuilder(), operation.CreateTable{Name: "Empty"})
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestRenderCreateTablePropertyCollision(t *testing.T) {
	b := codegen.NewIndentedBuilder()
	err := render.New("").Render(b, operation.CreateTable{
		Name: "Metrics",
		Columns: []operation.ColumnDefinition{
			{Name: "a-b", ClrType: "int", StoreType: "int"},
			{Name: "a_b", ClrType: "int", StoreType: "int"},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
	assert.Contains(t, err.Error(), "a_b")
	assert.Empty(t, b.String())

	err = render.New("").Render(codegen.NewIndentedBuilder(), operation.CreateTable{
		Name: "Keywords",
		Columns: []operation.ColumnDefinition{
			{Name: "class", ClrType: "string", StoreType: "text"},
			{Name: "_class", ClrType: "string", StoreType: "text"},
		},
	})
	assert.NoError(t, err)
}
