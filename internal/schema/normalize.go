package schema

import (
	"slices"
	"strings"

	"github.com/juju/errors"
)

// Normalize fills in everything a schema description may leave implicit:
// CLR types, key and constraint names, referenced columns, delete behaviour,
// unique indexes for unique columns and table dependencies.
func (m *Model) Normalize() {
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.ClrType == "" {
				c.ClrType = ClrTypeFor(c.BaseType())
			}
			if c.Meaning == "" {
				c.Meaning = AnalyzeMeaning(c.Name, c.Comment)
			}
		}

		if t.PrimaryKey == nil {
			var keys []string
			for _, c := range t.Columns {
				if c.IsPK {
					keys = append(keys, c.Name)
				}
			}
			if len(keys) > 0 {
				t.PrimaryKey = &PrimaryKey{Columns: keys}
			}
		}
		if t.PrimaryKey != nil {
			if t.PrimaryKey.Name == "" {
				t.PrimaryKey.Name = "PK_" + t.Name
			}
			for _, name := range t.PrimaryKey.Columns {
				if c := t.Column(name); c != nil {
					c.IsPK = true
				}
			}
		}

		for _, c := range t.Columns {
			if c.IsUnique && !c.IsPK && !t.hasIndexOn([]string{c.Name}) {
				t.Indexes = append(t.Indexes, &Index{Columns: []string{c.Name}, Unique: true})
			}
		}
		for _, idx := range t.Indexes {
			if idx.Name == "" {
				idx.Name = "IX_" + t.Name + "_" + strings.Join(idx.Columns, "_")
			}
		}
	}

	for _, t := range m.Tables {
		t.Dependencies = t.Dependencies[:0]
		for _, fk := range t.ForeignKeys {
			if fk.Name == "" {
				fk.Name = "FK_" + t.Name + "_" + fk.RefTable + "_" + strings.Join(fk.Columns, "_")
			}
			if len(fk.RefColumns) == 0 {
				if principal := m.Table(fk.RefTable); principal != nil && principal.PrimaryKey != nil {
					fk.RefColumns = append([]string(nil), principal.PrimaryKey.Columns...)
				}
			}
			if fk.OnDelete == "" {
				fk.OnDelete = "Cascade"
				for _, name := range fk.Columns {
					if c := t.Column(name); c != nil && c.IsNullable {
						fk.OnDelete = "SetNull"
						break
					}
				}
			}
			if fk.RefTable != t.Name && !slices.Contains(t.Dependencies, fk.RefTable) {
				t.Dependencies = append(t.Dependencies, fk.RefTable)
			}
		}
	}
}

func (t *Table) hasIndexOn(columns []string) bool {
	for _, idx := range t.Indexes {
		if slices.Equal(idx.Columns, columns) {
			return true
		}
	}
	return false
}

var referentialActions = map[string]bool{
	"NoAction": true, "Restrict": true, "Cascade": true, "SetNull": true, "SetDefault": true,
}

// Validate checks the model is internally consistent. It expects a normalized model.
func (m *Model) Validate() error {
	tables := make(map[string]bool)
	for i, t := range m.Tables {
		if t.Name == "" {
			return errors.NotValidf("table %d without a name", i)
		}
		if tables[t.Name] {
			return errors.NotValidf("duplicate table %q", t.Name)
		}
		tables[t.Name] = true

		if len(t.Columns) == 0 {
			return errors.NotValidf("table %q without columns", t.Name)
		}
		columns := make(map[string]bool)
		for _, c := range t.Columns {
			if c.Name == "" {
				return errors.NotValidf("column without a name in table %q", t.Name)
			}
			if columns[c.Name] {
				return errors.NotValidf("duplicate column %q in table %q", c.Name, t.Name)
			}
			if c.DataType == "" {
				return errors.NotValidf("column %q in table %q without a type", c.Name, t.Name)
			}
			columns[c.Name] = true
		}

		if t.PrimaryKey != nil {
			if err := checkColumns(t, "primary key", t.PrimaryKey.Columns); err != nil {
				return err
			}
		}
		indexes := make(map[string]bool)
		for _, idx := range t.Indexes {
			if indexes[idx.Name] {
				return errors.NotValidf("duplicate index %q in table %q", idx.Name, t.Name)
			}
			indexes[idx.Name] = true
			if err := checkColumns(t, "index "+idx.Name, idx.Columns); err != nil {
				return err
			}
		}
	}

	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			if err := checkColumns(t, "foreign key "+fk.Name, fk.Columns); err != nil {
				return err
			}
			principal := m.Table(fk.RefTable)
			if principal == nil {
				return errors.NotValidf("foreign key %q references unknown table %q", fk.Name, fk.RefTable)
			}
			if len(fk.RefColumns) != len(fk.Columns) {
				return errors.NotValidf("foreign key %q maps %d columns to %d", fk.Name, len(fk.Columns), len(fk.RefColumns))
			}
			if err := checkColumns(principal, "foreign key "+fk.Name, fk.RefColumns); err != nil {
				return err
			}
			if !referentialActions[fk.OnDelete] {
				return errors.NotValidf("on_delete %q of foreign key %q", fk.OnDelete, fk.Name)
			}
		}
	}
	return nil
}

func checkColumns(t *Table, what string, names []string) error {
	if len(names) == 0 {
		return errors.NotValidf("%s of table %q without columns", what, t.Name)
	}
	for _, name := range names {
		if t.Column(name) == nil {
			return errors.NotValidf("%s of table %q: unknown column %q", what, t.Name, name)
		}
	}
	return nil
}
