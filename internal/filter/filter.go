// Package filter strips schema operations that touch excluded tables.
package filter

import (
	"github.com/juju/collections/set"

	"plugin-migrate/internal/operation"
)

// ExclusionKey returns the table name an operation is excluded by.
// Foreign key additions are keyed by their principal table, so a key pointing
// at an excluded table is never recreated; every other keyed kind uses the
// table it belongs to. Kinds without a key are never excluded.
func ExclusionKey(op operation.Operation) (string, bool) {
	switch op := op.(type) {
	case operation.CreateTable:
		return op.Name, true
	case operation.DropTable:
		return op.Name, true
	case operation.AddForeignKey:
		return op.PrincipalTable, true
	case operation.DropForeignKey:
		return op.Table, true
	case operation.CreateIndex:
		return op.Table, true
	case operation.DropIndex:
		return op.Table, true
	case operation.AddColumn,
		operation.DropColumn,
		operation.AlterColumn,
		operation.InsertData,
		operation.UpdateData,
		operation.DeleteData,
		operation.SQL:
		return "", false
	}
	return "", false
}

// Filter returns the operations whose exclusion key is not in exclusions,
// in their original order.
func Filter(ops []operation.Operation, exclusions set.Strings) []operation.Operation {
	out := make([]operation.Operation, 0, len(ops))
	for _, op := range ops {
		if key, ok := ExclusionKey(op); ok && exclusions.Contains(key) {
			continue
		}
		out = append(out, op)
	}
	return out
}
