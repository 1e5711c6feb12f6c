// Package operation defines the schema-change operations a migration is made of.
//
// Operation is a closed set: every variant lives in this package and carries the
// unexported marker method, so code switching over operations can be checked
// against the full list of kinds.
package operation

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant of an Operation.
type Kind string

const (
	KindCreateTable    Kind = "CreateTable"
	KindDropTable      Kind = "DropTable"
	KindAddForeignKey  Kind = "AddForeignKey"
	KindDropForeignKey Kind = "DropForeignKey"
	KindCreateIndex    Kind = "CreateIndex"
	KindDropIndex      Kind = "DropIndex"
	KindAddColumn      Kind = "AddColumn"
	KindDropColumn     Kind = "DropColumn"
	KindAlterColumn    Kind = "AlterColumn"
	KindInsertData     Kind = "InsertData"
	KindUpdateData     Kind = "UpdateData"
	KindDeleteData     Kind = "DeleteData"
	KindSQL            Kind = "Sql"
)

// Operation is one atomic schema change.
type Operation interface {
	Kind() Kind
	// Imports returns the namespaces the rendered operation refers to.
	Imports() []string

	operation()
}

// ReferentialAction is the behaviour of a foreign key when its principal row is deleted.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NoAction"
	Restrict   ReferentialAction = "Restrict"
	Cascade    ReferentialAction = "Cascade"
	SetNull    ReferentialAction = "SetNull"
	SetDefault ReferentialAction = "SetDefault"
)

// ColumnDefinition describes a column as created or altered by a migration.
type ColumnDefinition struct {
	Name          string
	ClrType       string
	StoreType     string
	Nullable      bool
	MaxLength     int
	DefaultSQL    string
	AutoIncrement bool
	Comment       string
}

// PrimaryKey is the key constraint of a CreateTable operation.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// UniqueConstraint is a unique constraint declared inline with a table.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

type CreateTable struct {
	Name              string
	Schema            string
	Comment           string
	Columns           []ColumnDefinition
	PrimaryKey        *PrimaryKey
	UniqueConstraints []UniqueConstraint
	// ForeignKeys are created together with the table.
	ForeignKeys []AddForeignKey
}

type DropTable struct {
	Name   string
	Schema string
}

type AddForeignKey struct {
	Name             string
	Table            string
	Schema           string
	Columns          []string
	PrincipalTable   string
	PrincipalSchema  string
	PrincipalColumns []string
	OnDelete         ReferentialAction
}

type DropForeignKey struct {
	Name   string
	Table  string
	Schema string
}

type CreateIndex struct {
	Name    string
	Table   string
	Schema  string
	Columns []string
	Unique  bool
}

type DropIndex struct {
	Name   string
	Table  string
	Schema string
}

type AddColumn struct {
	Table  string
	Schema string
	Column ColumnDefinition
}

type DropColumn struct {
	Name   string
	Table  string
	Schema string
}

type AlterColumn struct {
	Table     string
	Schema    string
	Column    ColumnDefinition
	OldColumn ColumnDefinition
}

// InsertData seeds rows. Values is indexed [row][column].
type InsertData struct {
	Table   string
	Schema  string
	Columns []string
	Values  [][]any
}

// UpdateData updates the rows identified by KeyValues with Values, both indexed [row][column].
type UpdateData struct {
	Table      string
	Schema     string
	KeyColumns []string
	KeyValues  [][]any
	Columns    []string
	Values     [][]any
}

// DeleteData deletes the rows identified by KeyValues, indexed [row][column].
type DeleteData struct {
	Table      string
	Schema     string
	KeyColumns []string
	KeyValues  [][]any
}

// SQL runs a raw statement.
type SQL struct {
	Statement string
}

func (CreateTable) Kind() Kind    { return KindCreateTable }
func (DropTable) Kind() Kind      { return KindDropTable }
func (AddForeignKey) Kind() Kind  { return KindAddForeignKey }
func (DropForeignKey) Kind() Kind { return KindDropForeignKey }
func (CreateIndex) Kind() Kind    { return KindCreateIndex }
func (DropIndex) Kind() Kind      { return KindDropIndex }
func (AddColumn) Kind() Kind      { return KindAddColumn }
func (DropColumn) Kind() Kind     { return KindDropColumn }
func (AlterColumn) Kind() Kind    { return KindAlterColumn }
func (InsertData) Kind() Kind     { return KindInsertData }
func (UpdateData) Kind() Kind     { return KindUpdateData }
func (DeleteData) Kind() Kind     { return KindDeleteData }
func (SQL) Kind() Kind            { return KindSQL }

func (CreateTable) operation()    {}
func (DropTable) operation()      {}
func (AddForeignKey) operation()  {}
func (DropForeignKey) operation() {}
func (CreateIndex) operation()    {}
func (DropIndex) operation()      {}
func (AddColumn) operation()      {}
func (DropColumn) operation()     {}
func (AlterColumn) operation()    {}
func (InsertData) operation()     {}
func (UpdateData) operation()     {}
func (DeleteData) operation()     {}
func (SQL) operation()            {}

func (op CreateTable) Imports() []string {
	var ns []string
	for _, c := range op.Columns {
		ns = append(ns, c.Imports()...)
	}
	return unique(ns)
}

func (DropTable) Imports() []string      { return nil }
func (AddForeignKey) Imports() []string  { return nil }
func (DropForeignKey) Imports() []string { return nil }
func (CreateIndex) Imports() []string    { return nil }
func (DropIndex) Imports() []string      { return nil }
func (DropColumn) Imports() []string     { return nil }
func (SQL) Imports() []string            { return nil }

func (op AddColumn) Imports() []string { return op.Column.Imports() }

func (op AlterColumn) Imports() []string {
	return unique(append(op.Column.Imports(), op.OldColumn.Imports()...))
}

func (op InsertData) Imports() []string { return valueImports(op.Values) }

func (op UpdateData) Imports() []string {
	return unique(append(valueImports(op.KeyValues), valueImports(op.Values)...))
}

func (op DeleteData) Imports() []string { return valueImports(op.KeyValues) }

// systemTypes are the CLR types that live in the System namespace but have no C# keyword.
var systemTypes = map[string]bool{
	"DateTime":       true,
	"DateTimeOffset": true,
	"DateOnly":       true,
	"TimeOnly":       true,
	"TimeSpan":       true,
	"Guid":           true,
}

// Imports returns the namespace of the column's CLR type, if it needs one.
func (c ColumnDefinition) Imports() []string {
	t := strings.TrimSuffix(c.ClrType, "?")
	if i := strings.LastIndex(t, "."); i > 0 {
		return []string{t[:i]}
	}
	if systemTypes[t] {
		return []string{"System"}
	}
	return nil
}

// ShortClrType returns the CLR type name without its namespace.
func (c ColumnDefinition) ShortClrType() string {
	if i := strings.LastIndex(c.ClrType, "."); i >= 0 {
		return c.ClrType[i+1:]
	}
	return c.ClrType
}

func valueImports(rows [][]any) []string {
	for _, row := range rows {
		for _, v := range row {
			switch v.(type) {
			case time.Time, uuid.UUID, time.Duration:
				return []string{"System"}
			}
		}
	}
	return nil
}

func unique(ns []string) []string {
	if len(ns) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ns))
	var out []string
	for _, n := range ns {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// IsMultidimensional reports whether a data payload needs a two-dimensional
// array literal, that is both its row and column counts exceed one.
func IsMultidimensional(rows [][]any) bool {
	return len(rows) > 1 && len(rows[0]) > 1
}

// HasMultidimensionalData reports whether any data operation carries a
// two-dimensional payload.
func HasMultidimensionalData(ops ...[]Operation) bool {
	for _, list := range ops {
		for _, op := range list {
			switch op := op.(type) {
			case InsertData:
				if IsMultidimensional(op.Values) {
					return true
				}
			case UpdateData:
				if IsMultidimensional(op.Values) || IsMultidimensional(op.KeyValues) {
					return true
				}
			case DeleteData:
				if IsMultidimensional(op.KeyValues) {
					return true
				}
			}
		}
	}
	return false
}

// Table returns the table the operation applies to, or "" for raw SQL.
func Table(op Operation) string {
	switch op := op.(type) {
	case CreateTable:
		return op.Name
	case DropTable:
		return op.Name
	case AddForeignKey:
		return op.Table
	case DropForeignKey:
		return op.Table
	case CreateIndex:
		return op.Table
	case DropIndex:
		return op.Table
	case AddColumn:
		return op.Table
	case DropColumn:
		return op.Table
	case AlterColumn:
		return op.Table
	case InsertData:
		return op.Table
	case UpdateData:
		return op.Table
	case DeleteData:
		return op.Table
	}
	return ""
}
