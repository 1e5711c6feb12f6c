// Package seed generates fake rows for a table and the data operations that
// insert and remove them.
package seed

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/schema"
)

var logger = loggo.GetLogger("plugin-migrate.seed")

// Generator produces deterministic values: the same seed, reference time and
// table always yield the same rows.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// New returns a generator seeded with seed. Dates are drawn from the year
// before now.
func New(seed int64, now time.Time) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: now.UTC().Truncate(time.Second)}
}

// Rows generates n rows for the table. Key columns are numbered 1..n, or get
// fresh UUIDs when they are Guids; foreign key columns reference keys in the
// same range, so principals seeded with the same n are satisfied. Keys stay
// unique when they are also foreign keys: a single key column is numbered, a
// composite key made of foreign keys gets distinct tuples.
func (g *Generator) Rows(t *schema.Table, n int) ([]string, [][]any) {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = c.Name
	}

	references := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		for _, name := range fk.Columns {
			references[name] = true
		}
	}

	keys := t.KeyColumns()
	var tupleColumns []string
	if len(keys) > 1 {
		tupleColumns = make([]string, 0, len(keys))
		for _, c := range keys {
			if !references[c.Name] {
				// A numbered key column already makes every row unique.
				tupleColumns = nil
				break
			}
			tupleColumns = append(tupleColumns, c.Name)
		}
	}
	seen := make(map[string]bool)

	rows := make([][]any, n)
	for r := range rows {
		var tuple map[string]int
		if len(tupleColumns) > 0 {
			tuple = g.distinctTuple(tupleColumns, n, seen)
		}

		row := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			switch {
			case c.IsPK && (!references[c.Name] || len(keys) == 1):
				row[i] = g.key(c, r+1)
			case tuple != nil && c.IsPK:
				row[i] = g.key(c, tuple[c.Name])
			case references[c.Name]:
				if c.IsNullable && !c.IsPK {
					row[i] = nil
				} else {
					row[i] = g.key(c, g.faker.Number(1, n))
				}
			default:
				row[i] = g.Value(c, t.Name)
			}
		}
		rows[r] = row
	}
	return columns, rows
}

// distinctTuple draws a key in 1..n for each column, such that the
// combination is not in seen. On a collision it walks the n^k combinations in
// order, which always finds a free one since fewer than n are taken.
func (g *Generator) distinctTuple(columns []string, n int, seen map[string]bool) map[string]int {
	values := make([]int, len(columns))
	for i := range values {
		values[i] = g.faker.Number(1, n)
	}
	for next := 0; seen[fmt.Sprint(values)]; next++ {
		v := next
		for i := range values {
			values[i] = v%n + 1
			v /= n
		}
	}
	seen[fmt.Sprint(values)] = true

	tuple := make(map[string]int, len(columns))
	for i, name := range columns {
		tuple[name] = values[i]
	}
	return tuple
}

func (g *Generator) key(c *schema.Column, seq int) any {
	switch c.ClrType {
	case "Guid":
		return uuid.MustParse(g.faker.UUID())
	case "string":
		return truncate(fmt.Sprintf("%s-%d", strings.ToLower(c.Name), seq), c.Length)
	case "long":
		return int64(seq)
	}
	return seq
}

// Operations returns an InsertData seeding n rows and the DeleteData that
// removes them again, keyed by the primary key.
func (g *Generator) Operations(t *schema.Table, n int) (up, down operation.Operation, err error) {
	if n <= 0 {
		return nil, nil, errors.NotValidf("row count %d", n)
	}
	keys := t.KeyColumns()
	if len(keys) == 0 {
		return nil, nil, errors.NotValidf("seeding table %q without primary key", t.Name)
	}

	columns, rows := g.Rows(t, n)

	keyColumns := make([]string, len(keys))
	keyIndex := make([]int, len(keys))
	for i, k := range keys {
		keyColumns[i] = k.Name
		for j, name := range columns {
			if name == k.Name {
				keyIndex[i] = j
			}
		}
	}
	keyValues := make([][]any, len(rows))
	for r, row := range rows {
		keyValues[r] = make([]any, len(keyIndex))
		for i, j := range keyIndex {
			keyValues[r][i] = row[j]
		}
	}

	logger.Debugf("generated %d rows for %s", n, t.Name)
	up = operation.InsertData{Table: t.Name, Schema: t.Schema, Columns: columns, Values: rows}
	down = operation.DeleteData{Table: t.Name, Schema: t.Schema, KeyColumns: keyColumns, KeyValues: keyValues}
	return up, down, nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// Value generates a value for a non-key column from its CLR type and the
// meaning derived from its name and comment.
func (g *Generator) Value(c *schema.Column, tableName string) any {
	f := g.faker
	name := strings.ToLower(c.Name)
	meaning := c.Meaning

	if len(c.EnumValues) > 0 {
		return c.EnumValues[f.Number(0, len(c.EnumValues)-1)]
	}

	switch c.ClrType {
	case "string":
		return truncate(g.text(c, name, meaning, tableName), c.Length)

	case "int", "long", "short", "byte":
		var v int
		switch {
		case strings.Contains(meaning, "yesno") || strings.Contains(name, "active") || strings.Contains(name, "enabled"):
			v = f.Number(0, 1)
		case strings.Contains(name, "year") || strings.Contains(meaning, "year"):
			v = f.Number(2000, 2025)
		case c.ClrType == "byte":
			v = f.Number(0, 127)
		case c.ClrType == "short":
			v = f.Number(1, 30000)
		default:
			v = f.Number(1, 50000)
		}
		if c.ClrType == "long" {
			return int64(v)
		}
		return v

	case "decimal", "double":
		return f.Price(0.99, 99.99)
	case "float":
		return float32(f.Price(0.99, 99.99))
	case "bool":
		return f.Bool()

	case "DateTime", "DateTimeOffset":
		v := f.DateRange(g.now.AddDate(-1, 0, 0), g.now).UTC().Truncate(time.Second)
		if c.BaseType() == "date" {
			return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		}
		return v
	case "TimeSpan":
		return time.Duration(f.Number(0, 86399)) * time.Second

	case "Guid":
		return uuid.MustParse(f.UUID())
	case "byte[]":
		b := make([]byte, 8)
		for i := range b {
			b[i] = byte(f.Number(0, 255))
		}
		return b
	}
	return nil
}

func (g *Generator) text(c *schema.Column, name, meaning, tableName string) string {
	f := g.faker
	isID := name == "id" || strings.HasSuffix(name, "_id") || strings.HasSuffix(c.Name, "Id")
	words := strings.Fields(meaning)

	switch {
	case strings.Contains(meaning, "year") || strings.Contains(name, "year"):
		return fmt.Sprintf("%d", f.Number(2000, 2025))
	case isID:
		return f.LetterN(uint(max(c.Length, 8)))
	case strings.Contains(meaning, "phone"):
		return f.Phone()
	case strings.Contains(meaning, "email"):
		return f.Email()
	case strings.Contains(meaning, "password"):
		return f.Password(true, true, true, false, false, 12)
	case slices.Contains(words, "url"):
		return f.URL()
	case slices.Contains(words, "ip"):
		return f.IPv4Address()
	case strings.Contains(meaning, "name"):
		if strings.Contains(name, "first") {
			return f.FirstName()
		}
		if strings.Contains(name, "last") {
			return f.LastName()
		}
		if c.Length > 0 && c.Length < 3 {
			return f.LastName()
		}
		return f.Name()
	case strings.Contains(meaning, "address"), strings.Contains(meaning, "street"):
		return f.Street()
	case strings.Contains(meaning, "zipcode"):
		return f.Zip()
	case strings.Contains(meaning, "country"):
		return f.Country()
	case strings.Contains(meaning, "city"):
		return f.City()
	case strings.Contains(meaning, "yesno"):
		if f.Bool() {
			return "Y"
		}
		return "N"
	case strings.Contains(meaning, "title"), strings.Contains(meaning, "subject"):
		return strings.TrimSuffix(f.Sentence(3), ".")
	case strings.Contains(meaning, "description"), strings.Contains(meaning, "message"),
		strings.Contains(meaning, "comment"), strings.Contains(meaning, "text"):
		return f.Sentence(10)
	case slices.Contains(words, "code"):
		return strings.ToUpper(f.LetterN(uint(min(max(c.Length, 1), 6))))
	}

	if tableName == "language" || tableName == "category" {
		return fmt.Sprintf("%s-%d", f.Word(), f.Number(0, 999))
	}
	if c.Length > 0 && c.Length < 20 {
		return f.Word()
	}
	return f.Sentence(5)
}
