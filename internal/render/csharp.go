// Package render writes single schema operations as EF Core MigrationBuilder
// calls.
package render

import (
	"strconv"
	"strings"

	"github.com/juju/errors"

	"plugin-migrate/internal/codegen"
	"plugin-migrate/internal/operation"
)

const builderVar = "migrationBuilder"

// identityAnnotations are the provider annotations marking a store-generated key.
var identityAnnotations = map[string]string{
	"sqlserver": `.Annotation("SqlServer:Identity", "1, 1")`,
	"mssql":     `.Annotation("SqlServer:Identity", "1, 1")`,
	"sqlite":    `.Annotation("Sqlite:Autoincrement", true)`,
	"sqlite3":   `.Annotation("Sqlite:Autoincrement", true)`,
}

// CSharp renders operations for the EF Core provider matching Driver.
type CSharp struct {
	// Driver selects provider-specific annotations; unknown drivers get none.
	Driver string
}

// New returns a renderer for the given database driver name.
func New(driver string) *CSharp {
	return &CSharp{Driver: driver}
}

var _ codegen.Renderer = (*CSharp)(nil)

// Render implements codegen.Renderer.
func (r *CSharp) Render(b *codegen.IndentedBuilder, op operation.Operation) error {
	switch op := op.(type) {
	case operation.CreateTable:
		return r.createTable(b, op)
	case operation.DropTable:
		call(b, "DropTable", [][]string{
			arg("name", codegen.Literal(op.Name)),
			optional("schema", op.Schema),
		}, nil)
	case operation.AddForeignKey:
		args := [][]string{
			arg("name", codegen.Literal(op.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
			columnsArg("column", "columns", op.Columns),
			optional("principalSchema", op.PrincipalSchema),
			arg("principalTable", codegen.Literal(op.PrincipalTable)),
		}
		if len(op.PrincipalColumns) > 0 {
			args = append(args, columnsArg("principalColumn", "principalColumns", op.PrincipalColumns))
		}
		args = append(args, onDelete(op.OnDelete))
		call(b, "AddForeignKey", args, nil)
	case operation.DropForeignKey:
		call(b, "DropForeignKey", [][]string{
			arg("name", codegen.Literal(op.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}, nil)
	case operation.CreateIndex:
		args := [][]string{
			arg("name", codegen.Literal(op.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
			columnsArg("column", "columns", op.Columns),
		}
		if op.Unique {
			args = append(args, arg("unique", "true"))
		}
		call(b, "CreateIndex", args, nil)
	case operation.DropIndex:
		call(b, "DropIndex", [][]string{
			arg("name", codegen.Literal(op.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}, nil)
	case operation.AddColumn:
		args := [][]string{
			arg("name", codegen.Literal(op.Column.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}
		args = append(args, columnFacets(op.Column, "")...)
		call(b, "AddColumn<"+op.Column.ShortClrType()+">", args, r.annotations(op.Column))
	case operation.DropColumn:
		call(b, "DropColumn", [][]string{
			arg("name", codegen.Literal(op.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}, nil)
	case operation.AlterColumn:
		args := [][]string{
			arg("name", codegen.Literal(op.Column.Name)),
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}
		args = append(args, columnFacets(op.Column, "")...)
		args = append(args, arg("oldClrType", "typeof("+op.OldColumn.ShortClrType()+")"))
		args = append(args, columnFacets(op.OldColumn, "old")...)
		call(b, "AlterColumn<"+op.Column.ShortClrType()+">", args, r.annotations(op.Column))
	case operation.InsertData:
		args := [][]string{
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}
		data, err := dataArgs("column", "columns", "value", "values", op.Columns, op.Values)
		if err != nil {
			return errors.Annotatef(err, "inserting into %s", op.Table)
		}
		call(b, "InsertData", append(args, data...), nil)
	case operation.UpdateData:
		if len(op.KeyValues) != len(op.Values) {
			return errors.NotValidf("update of %s with %d keys and %d value rows", op.Table, len(op.KeyValues), len(op.Values))
		}
		args := [][]string{
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}
		keys, err := dataArgs("keyColumn", "keyColumns", "keyValue", "keyValues", op.KeyColumns, op.KeyValues)
		if err != nil {
			return errors.Annotatef(err, "updating %s", op.Table)
		}
		values, err := dataArgs("column", "columns", "value", "values", op.Columns, op.Values)
		if err != nil {
			return errors.Annotatef(err, "updating %s", op.Table)
		}
		args = append(args, keys...)
		call(b, "UpdateData", append(args, values...), nil)
	case operation.DeleteData:
		args := [][]string{
			arg("table", codegen.Literal(op.Table)),
			optional("schema", op.Schema),
		}
		keys, err := dataArgs("keyColumn", "keyColumns", "keyValue", "keyValues", op.KeyColumns, op.KeyValues)
		if err != nil {
			return errors.Annotatef(err, "deleting from %s", op.Table)
		}
		call(b, "DeleteData", append(args, keys...), nil)
	case operation.SQL:
		b.AppendLine(builderVar, ".Sql(", codegen.Literal(op.Statement), ");")
	default:
		return errors.NotSupportedf("operation %T", op)
	}
	return nil
}

func (r *CSharp) annotations(c operation.ColumnDefinition) []string {
	if !c.AutoIncrement {
		return nil
	}
	if a, ok := identityAnnotations[r.Driver]; ok {
		return []string{a}
	}
	return nil
}

func (r *CSharp) createTable(b *codegen.IndentedBuilder, op operation.CreateTable) error {
	if len(op.Columns) == 0 {
		return errors.NotValidf("table %s without columns", op.Name)
	}
	properties := make(map[string]string, len(op.Columns))
	for _, c := range op.Columns {
		property := codegen.Identifier(c.Name)
		if other, ok := properties[property]; ok {
			return errors.NotValidf("columns %q and %q of table %s both map to property %s", other, c.Name, op.Name, property)
		}
		properties[property] = c.Name
	}

	b.AppendLine(builderVar, ".CreateTable(")
	outer := b.Indent()
	defer outer.Close()

	b.AppendLine("name: ", codegen.Literal(op.Name), ",")
	if op.Schema != "" {
		b.AppendLine("schema: ", codegen.Literal(op.Schema), ",")
	}

	b.AppendLine("columns: table => new")
	b.AppendLine("{")
	columns := b.Indent()
	for i, c := range op.Columns {
		var facets []string
		if property := codegen.Identifier(c.Name); property != c.Name {
			facets = append(facets, "name: "+codegen.Literal(c.Name))
		}
		for _, f := range columnFacets(c, "") {
			facets = append(facets, f[0])
		}
		line := codegen.Identifier(c.Name) + " = table.Column<" + c.ShortClrType() + ">(" + strings.Join(facets, ", ") + ")"
		suffix := ","
		if i == len(op.Columns)-1 {
			suffix = ""
		}
		if annotations := r.annotations(c); len(annotations) > 0 {
			b.AppendLine(line)
			in := b.Indent()
			for j, a := range annotations {
				if j == len(annotations)-1 {
					a += suffix
				}
				b.AppendLine(a)
			}
			in.Close()
			continue
		}
		b.AppendLine(line, suffix)
	}
	columns.Close()

	var constraints []func()
	if op.PrimaryKey != nil {
		pk := op.PrimaryKey
		constraints = append(constraints, func() {
			b.AppendLine("table.PrimaryKey(", codegen.Literal(pk.Name), ", ", lambda(pk.Columns), ");")
		})
	}
	for _, uc := range op.UniqueConstraints {
		constraints = append(constraints, func() {
			b.AppendLine("table.UniqueConstraint(", codegen.Literal(uc.Name), ", ", lambda(uc.Columns), ");")
		})
	}
	for _, fk := range op.ForeignKeys {
		constraints = append(constraints, func() {
			args := [][]string{arg("name", codegen.Literal(fk.Name))}
			if len(fk.Columns) == 1 {
				args = append(args, arg("column", lambda(fk.Columns)))
			} else {
				args = append(args, arg("columns", lambda(fk.Columns)))
			}
			args = append(args,
				optional("principalSchema", fk.PrincipalSchema),
				arg("principalTable", codegen.Literal(fk.PrincipalTable)),
			)
			if len(fk.PrincipalColumns) > 0 {
				args = append(args, columnsArg("principalColumn", "principalColumns", fk.PrincipalColumns))
			}
			args = append(args, onDelete(fk.OnDelete))
			invoke(b, "table.ForeignKey(", args, nil)
		})
	}

	end := ");"
	if op.Comment != "" {
		end = ","
	}
	if len(constraints) == 0 {
		b.AppendLine("}", end)
	} else {
		b.AppendLine("},")
		b.AppendLine("constraints: table =>")
		b.AppendLine("{")
		in := b.Indent()
		for _, c := range constraints {
			c()
		}
		in.Close()
		b.AppendLine("}", end)
	}
	if op.Comment != "" {
		b.AppendLine("comment: ", codegen.Literal(op.Comment), ");")
	}
	return nil
}

// columnFacets returns the type, length, nullability, default and comment
// arguments of a column. prefix names the old-column variants ("oldType").
func columnFacets(c operation.ColumnDefinition, prefix string) [][]string {
	name := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + strings.ToUpper(s[:1]) + s[1:]
	}
	var args [][]string
	if c.StoreType != "" {
		args = append(args, arg(name("type"), codegen.Literal(c.StoreType)))
	}
	if c.MaxLength > 0 {
		args = append(args, arg(name("maxLength"), strconv.Itoa(c.MaxLength)))
	}
	args = append(args, arg(name("nullable"), strconv.FormatBool(c.Nullable)))
	if c.DefaultSQL != "" {
		args = append(args, arg(name("defaultValueSql"), codegen.Literal(c.DefaultSQL)))
	}
	if c.Comment != "" {
		args = append(args, arg(name("comment"), codegen.Literal(c.Comment)))
	}
	return args
}

func onDelete(action operation.ReferentialAction) []string {
	if action == "" || action == operation.NoAction {
		return nil
	}
	return arg("onDelete", "ReferentialAction."+string(action))
}

func arg(name, value string) []string {
	return []string{name + ": " + value}
}

func optional(name, value string) []string {
	if value == "" {
		return nil
	}
	return arg(name, codegen.Literal(value))
}

func columnsArg(single, plural string, columns []string) []string {
	if len(columns) == 1 {
		return arg(single, codegen.Literal(columns[0]))
	}
	return arg(plural, codegen.StringArray(columns))
}

// lambda renders x => x.A or x => new { x.A, x.B }.
func lambda(columns []string) string {
	if len(columns) == 1 {
		return "x => x." + codegen.Identifier(columns[0])
	}
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = "x." + codegen.Identifier(c)
	}
	return "x => new { " + strings.Join(parts, ", ") + " }"
}

// dataArgs renders the column and value arguments of a data operation in
// the narrowest form EF accepts: a scalar, a one-dimensional array or, when
// both dimensions exceed one, a two-dimensional array.
func dataArgs(single, plural, value, values string, columns []string, rows [][]any) ([][]string, error) {
	if len(columns) == 0 {
		return nil, errors.NotValidf("data operation without columns")
	}
	if len(rows) == 0 {
		return nil, errors.NotValidf("data operation without rows")
	}
	literals := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NotValidf("row %d with %d values for %d columns", i, len(row), len(columns))
		}
		literals[i] = make([]string, len(row))
		for j, v := range row {
			lit, err := codegen.UnknownLiteral(v)
			if err != nil {
				return nil, errors.Annotatef(err, "row %d, column %s", i, columns[j])
			}
			literals[i][j] = lit
		}
	}

	args := [][]string{columnsArg(single, plural, columns)}
	switch {
	case len(columns) == 1 && len(rows) == 1:
		args = append(args, arg(value, literals[0][0]))
	case len(columns) == 1:
		flat := make([]string, len(rows))
		for i, row := range literals {
			flat[i] = row[0]
		}
		args = append(args, arg(values, "new object[] { "+strings.Join(flat, ", ")+" }"))
	case len(rows) == 1:
		args = append(args, arg(values, "new object[] { "+strings.Join(literals[0], ", ")+" }"))
	default:
		lines := []string{values + ": new object[,]", "{"}
		for i, row := range literals {
			line := "    { " + strings.Join(row, ", ") + " }"
			if i < len(literals)-1 {
				line += ","
			}
			lines = append(lines, line)
		}
		args = append(args, append(lines, "}"))
	}
	return args, nil
}

// call writes migrationBuilder.Method( with one named argument per line.
func call(b *codegen.IndentedBuilder, method string, args [][]string, chain []string) {
	invoke(b, builderVar+"."+method+"(", args, chain)
}

// invoke writes head followed by its arguments, one per line and indented,
// closing the call and any chained calls with a semicolon. Empty arguments
// are skipped.
func invoke(b *codegen.IndentedBuilder, head string, args [][]string, chain []string) {
	var present [][]string
	for _, a := range args {
		if len(a) > 0 {
			present = append(present, a)
		}
	}

	b.AppendLine(head)
	in := b.Indent()
	defer in.Close()

	for i, a := range present {
		for j, line := range a {
			if j < len(a)-1 {
				b.AppendLine(line)
				continue
			}
			switch {
			case i < len(present)-1:
				b.AppendLine(line, ",")
			case len(chain) > 0:
				b.AppendLine(line, ")")
			default:
				b.AppendLine(line, ");")
			}
		}
	}
	for i, c := range chain {
		if i == len(chain)-1 {
			b.AppendLine(c, ";")
		} else {
			b.AppendLine(c)
		}
	}
}
