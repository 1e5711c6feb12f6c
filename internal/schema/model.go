package schema

import (
	"fmt"
	"strings"
)

// Model is the full set of tables a plugin's data context maps.
type Model struct {
	// Context is the fully qualified type of the plugin's data context.
	Context string   `yaml:"context,omitempty"`
	Tables  []*Table `yaml:"tables"`
}

type Table struct {
	Name   string `yaml:"name"`
	Schema string `yaml:"schema,omitempty"`
	// Shared tables are owned by the framework SDK and never migrated by plugins.
	Shared      bool          `yaml:"shared,omitempty"`
	Comment     string        `yaml:"comment,omitempty"`
	Columns     []*Column     `yaml:"columns"`
	PrimaryKey  *PrimaryKey   `yaml:"primary_key,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty"`

	Dependencies []string `yaml:"-"`
}

type Column struct {
	Name       string   `yaml:"name"`
	DataType   string   `yaml:"type"`
	ClrType    string   `yaml:"clr_type,omitempty"`
	Length     int      `yaml:"length,omitempty"`
	IsNullable bool     `yaml:"nullable,omitempty"`
	IsPK       bool     `yaml:"key,omitempty"`
	IsAutoInc  bool     `yaml:"auto_increment,omitempty"`
	IsUnique   bool     `yaml:"unique,omitempty"`
	Default    string   `yaml:"default,omitempty"`
	EnumValues []string `yaml:"enum,omitempty"`
	Comment    string   `yaml:"comment,omitempty"`
	Meaning    string   `yaml:"meaning,omitempty"`
}

type PrimaryKey struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns"`
}

type ForeignKey struct {
	Name       string   `yaml:"name,omitempty"`
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"references"`
	RefSchema  string   `yaml:"references_schema,omitempty"`
	RefColumns []string `yaml:"ref_columns,omitempty"`
	OnDelete   string   `yaml:"on_delete,omitempty"`
}

type Index struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// Table returns the table with the given name, or nil.
func (m *Model) Table(name string) *Table {
	if m == nil {
		return nil
	}
	for _, t := range m.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// SharedTables returns the names of the tables owned by the framework SDK.
func (m *Model) SharedTables() []string {
	var names []string
	for _, t := range m.Tables {
		if t.Shared {
			names = append(names, t.Name)
		}
	}
	return names
}

// ContextName returns the unqualified name of the data context type.
func (m *Model) ContextName() string {
	if i := strings.LastIndex(m.Context, "."); i >= 0 {
		return m.Context[i+1:]
	}
	return m.Context
}

func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) ForeignKey(name string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if fk.Name == name {
			return fk
		}
	}
	return nil
}

func (t *Table) Index(name string) *Index {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// KeyColumns returns the primary key columns in key order.
func (t *Table) KeyColumns() []*Column {
	if t.PrimaryKey == nil {
		return nil
	}
	var cols []*Column
	for _, name := range t.PrimaryKey.Columns {
		if c := t.Column(name); c != nil {
			cols = append(cols, c)
		}
	}
	return cols
}

// lengthTypes are the store types that take a length argument.
var lengthTypes = map[string]bool{
	"char": true, "varchar": true, "nchar": true, "nvarchar": true,
	"varchar2": true, "nvarchar2": true, "binary": true, "varbinary": true,
	"character varying": true, "character": true,
}

// StoreType returns the provider type, including the length where the type takes one.
func (c *Column) StoreType() string {
	if strings.Contains(c.DataType, "(") || c.Length <= 0 || !lengthTypes[strings.ToLower(c.DataType)] {
		return c.DataType
	}
	return fmt.Sprintf("%s(%d)", c.DataType, c.Length)
}

// BaseType returns the lower-cased store type without its arguments.
func (c *Column) BaseType() string {
	t := strings.ToLower(strings.TrimSpace(c.DataType))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.TrimSuffix(t, " unsigned")
}
