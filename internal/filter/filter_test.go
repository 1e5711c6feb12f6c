package filter_test

import (
	"testing"

	"github.com/juju/collections/set"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugin-migrate/internal/filter"
	"plugin-migrate/internal/operation"
)

func sampleOperations() []operation.Operation {
	return []operation.Operation{
		operation.DropForeignKey{Name: "FK_Orders_Users_UserId", Table: "Orders"},
		operation.DropIndex{Name: "IX_Users_Email", Table: "Users"},
		operation.DropTable{Name: "Users"},
		operation.CreateTable{Name: "Users"},
		operation.CreateTable{Name: "Orders"},
		operation.AddColumn{Table: "Users", Column: operation.ColumnDefinition{Name: "Age", ClrType: "int"}},
		operation.AddForeignKey{Name: "FK_Orders_Users_UserId", Table: "Orders", PrincipalTable: "Users"},
		operation.AddForeignKey{Name: "FK_Users_Orders_LastOrderId", Table: "Users", PrincipalTable: "Orders"},
		operation.CreateIndex{Name: "IX_Users_Email", Table: "Users"},
		operation.InsertData{Table: "Users", Columns: []string{"Id"}, Values: [][]any{{1}}},
		operation.SQL{Statement: "SELECT 1"},
	}
}

func TestFilterEmptyExclusionsIsIdentity(t *testing.T) {
	ops := sampleOperations()

	assert.Equal(t, ops, filter.Filter(ops, nil))
	assert.Equal(t, ops, filter.Filter(ops, set.NewStrings()))
}

func TestFilterEmptyInput(t *testing.T) {
	assert.Empty(t, filter.Filter(nil, set.NewStrings("Users")))
}

func TestFilterExcludesByKey(t *testing.T) {
	got := filter.Filter(sampleOperations(), set.NewStrings("Users"))

	want := []operation.Operation{
		operation.DropForeignKey{Name: "FK_Orders_Users_UserId", Table: "Orders"},
		operation.CreateTable{Name: "Orders"},
		operation.AddColumn{Table: "Users", Column: operation.ColumnDefinition{Name: "Age", ClrType: "int"}},
		operation.AddForeignKey{Name: "FK_Users_Orders_LastOrderId", Table: "Users", PrincipalTable: "Orders"},
		operation.InsertData{Table: "Users", Columns: []string{"Id"}, Values: [][]any{{1}}},
		operation.SQL{Statement: "SELECT 1"},
	}
	assert.Equal(t, want, got)
}

func TestFilterIsCaseSensitive(t *testing.T) {
	ops := []operation.Operation{operation.CreateTable{Name: "Users"}}

	assert.Equal(t, ops, filter.Filter(ops, set.NewStrings("users")))
}

func TestFilterIgnoresUnknownNames(t *testing.T) {
	ops := sampleOperations()

	assert.Equal(t, ops, filter.Filter(ops, set.NewStrings("Invoices", "Payments")))
}

func TestFilterIsIdempotent(t *testing.T) {
	exclusions := set.NewStrings("Users")
	once := filter.Filter(sampleOperations(), exclusions)

	assert.Equal(t, once, filter.Filter(once, exclusions))
}

func TestFilterPreservesOrder(t *testing.T) {
	ops := sampleOperations()
	got := filter.Filter(ops, set.NewStrings("Orders"))

	// every kept operation appears in the input after the previous one
	next := 0
	for _, op := range got {
		found := false
		for next < len(ops) {
			next++
			if assert.ObjectsAreEqual(ops[next-1], op) {
				found = true
				break
			}
		}
		require.True(t, found, "operation %v out of order", op)
	}
}

func TestFilterForeignKeyPrincipalExcluded(t *testing.T) {
	ops := []operation.Operation{
		operation.AddForeignKey{Table: "Orders", PrincipalTable: "Users"},
	}

	assert.Empty(t, filter.Filter(ops, set.NewStrings("Users")))
}

func TestFilterForeignKeyOwnerExcludedIsKept(t *testing.T) {
	ops := []operation.Operation{
		operation.AddForeignKey{Table: "Users", PrincipalTable: "Orders"},
	}

	assert.Equal(t, ops, filter.Filter(ops, set.NewStrings("Users")))
}

func TestExclusionKey(t *testing.T) {
	tests := []struct {
		op      operation.Operation
		key     string
		present bool
	}{
		{operation.CreateTable{Name: "A"}, "A", true},
		{operation.DropTable{Name: "A"}, "A", true},
		{operation.AddForeignKey{Table: "A", PrincipalTable: "B"}, "B", true},
		{operation.DropForeignKey{Table: "A"}, "A", true},
		{operation.CreateIndex{Table: "A"}, "A", true},
		{operation.DropIndex{Table: "A"}, "A", true},
		{operation.AddColumn{Table: "A"}, "", false},
		{operation.DropColumn{Table: "A"}, "", false},
		{operation.AlterColumn{Table: "A"}, "", false},
		{operation.InsertData{Table: "A"}, "", false},
		{operation.UpdateData{Table: "A"}, "", false},
		{operation.DeleteData{Table: "A"}, "", false},
		{operation.SQL{Statement: "x"}, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op.Kind()), func(t *testing.T) {
			key, ok := filter.ExclusionKey(tt.op)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}
