// Package differ computes the operations turning one schema model into another.
package differ

import (
	"slices"

	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/schema"
)

// Diff returns the operations migrating from to to, ordered so that every
// statement only depends on objects that already exist:
//
//	drop foreign keys, drop indexes, drop tables (dependents first),
//	create tables (principals first), add/alter/drop columns,
//	add foreign keys, create indexes.
//
// A nil from model is empty, which yields the initial migration. Both models
// are expected to be normalized. The reverse migration is Diff(to, from).
func Diff(from, to *schema.Model) []operation.Operation {
	if from == nil {
		from = &schema.Model{}
	}
	if to == nil {
		to = &schema.Model{}
	}

	var (
		dropForeignKeys []operation.Operation
		dropIndexes     []operation.Operation
		dropTables      []operation.Operation
		createTables    []operation.Operation
		columns         []operation.Operation
		addForeignKeys  []operation.Operation
		createIndexes   []operation.Operation
	)

	// Tables present on both sides.
	for _, target := range to.Tables {
		source := from.Table(target.Name)
		if source == nil {
			continue
		}

		for _, fk := range source.ForeignKeys {
			if next := target.ForeignKey(fk.Name); next == nil || !sameForeignKey(fk, next) {
				dropForeignKeys = append(dropForeignKeys, operation.DropForeignKey{
					Name: fk.Name, Table: source.Name, Schema: source.Schema,
				})
			}
		}
		for _, idx := range source.Indexes {
			if next := target.Index(idx.Name); next == nil || !sameIndex(idx, next) {
				dropIndexes = append(dropIndexes, operation.DropIndex{
					Name: idx.Name, Table: source.Name, Schema: source.Schema,
				})
			}
		}

		columns = append(columns, diffColumns(source, target)...)

		for _, fk := range target.ForeignKeys {
			if prev := source.ForeignKey(fk.Name); prev == nil || !sameForeignKey(prev, fk) {
				addForeignKeys = append(addForeignKeys, addForeignKey(target, fk))
			}
		}
		for _, idx := range target.Indexes {
			if prev := source.Index(idx.Name); prev == nil || !sameIndex(prev, idx) {
				createIndexes = append(createIndexes, createIndex(target, idx))
			}
		}
	}

	var dropped []*schema.Table
	for _, t := range from.Tables {
		if to.Table(t.Name) == nil {
			dropped = append(dropped, t)
		}
	}
	dropped = schema.SortTablesByFKCount(dropped)
	for i := len(dropped) - 1; i >= 0; i-- {
		dropTables = append(dropTables, operation.DropTable{Name: dropped[i].Name, Schema: dropped[i].Schema})
	}

	var created []*schema.Table
	for _, t := range to.Tables {
		if from.Table(t.Name) == nil {
			created = append(created, t)
		}
	}
	exists := make(map[string]bool)
	for _, t := range to.Tables {
		if from.Table(t.Name) != nil {
			exists[t.Name] = true
		}
	}
	for _, t := range schema.SortTablesByFKCount(created) {
		op := createTable(t)
		for _, fk := range t.ForeignKeys {
			// Principals must exist before the constraint; the rest is added
			// once every table is in place.
			if fk.RefTable == t.Name || exists[fk.RefTable] {
				op.ForeignKeys = append(op.ForeignKeys, addForeignKey(t, fk))
			} else {
				addForeignKeys = append(addForeignKeys, addForeignKey(t, fk))
			}
		}
		createTables = append(createTables, op)
		exists[t.Name] = true

		for _, idx := range t.Indexes {
			createIndexes = append(createIndexes, createIndex(t, idx))
		}
	}

	ops := make([]operation.Operation, 0,
		len(dropForeignKeys)+len(dropIndexes)+len(dropTables)+len(createTables)+
			len(columns)+len(addForeignKeys)+len(createIndexes))
	ops = append(ops, dropForeignKeys...)
	ops = append(ops, dropIndexes...)
	ops = append(ops, dropTables...)
	ops = append(ops, createTables...)
	ops = append(ops, columns...)
	ops = append(ops, addForeignKeys...)
	ops = append(ops, createIndexes...)
	return ops
}

func diffColumns(source, target *schema.Table) []operation.Operation {
	var adds, alters, drops []operation.Operation
	for _, c := range target.Columns {
		prev := source.Column(c.Name)
		switch {
		case prev == nil:
			adds = append(adds, operation.AddColumn{
				Table: target.Name, Schema: target.Schema, Column: ColumnDefinition(c),
			})
		case ColumnDefinition(prev) != ColumnDefinition(c):
			alters = append(alters, operation.AlterColumn{
				Table: target.Name, Schema: target.Schema,
				Column: ColumnDefinition(c), OldColumn: ColumnDefinition(prev),
			})
		}
	}
	for _, c := range source.Columns {
		if target.Column(c.Name) == nil {
			drops = append(drops, operation.DropColumn{Name: c.Name, Table: target.Name, Schema: target.Schema})
		}
	}
	return append(append(adds, alters...), drops...)
}

// ColumnDefinition converts a model column to its operation form.
func ColumnDefinition(c *schema.Column) operation.ColumnDefinition {
	return operation.ColumnDefinition{
		Name:          c.Name,
		ClrType:       c.ClrType,
		StoreType:     c.StoreType(),
		Nullable:      c.IsNullable,
		MaxLength:     c.Length,
		DefaultSQL:    c.Default,
		AutoIncrement: c.IsAutoInc,
		Comment:       c.Comment,
	}
}

func createTable(t *schema.Table) operation.CreateTable {
	op := operation.CreateTable{Name: t.Name, Schema: t.Schema, Comment: t.Comment}
	for _, c := range t.Columns {
		op.Columns = append(op.Columns, ColumnDefinition(c))
	}
	if t.PrimaryKey != nil {
		op.PrimaryKey = &operation.PrimaryKey{
			Name:    t.PrimaryKey.Name,
			Columns: slices.Clone(t.PrimaryKey.Columns),
		}
	}
	return op
}

func addForeignKey(t *schema.Table, fk *schema.ForeignKey) operation.AddForeignKey {
	return operation.AddForeignKey{
		Name:             fk.Name,
		Table:            t.Name,
		Schema:           t.Schema,
		Columns:          slices.Clone(fk.Columns),
		PrincipalTable:   fk.RefTable,
		PrincipalSchema:  fk.RefSchema,
		PrincipalColumns: slices.Clone(fk.RefColumns),
		OnDelete:         operation.ReferentialAction(fk.OnDelete),
	}
}

func createIndex(t *schema.Table, idx *schema.Index) operation.CreateIndex {
	return operation.CreateIndex{
		Name:    idx.Name,
		Table:   t.Name,
		Schema:  t.Schema,
		Columns: slices.Clone(idx.Columns),
		Unique:  idx.Unique,
	}
}

func sameForeignKey(a, b *schema.ForeignKey) bool {
	return slices.Equal(a.Columns, b.Columns) &&
		a.RefTable == b.RefTable &&
		a.RefSchema == b.RefSchema &&
		slices.Equal(a.RefColumns, b.RefColumns) &&
		a.OnDelete == b.OnDelete
}

func sameIndex(a, b *schema.Index) bool {
	return a.Unique == b.Unique && slices.Equal(a.Columns, b.Columns)
}
