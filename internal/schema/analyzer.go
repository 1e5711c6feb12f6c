package schema

import (
	"context"
	"database/sql"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"plugin-migrate/internal/dialect"
)

var logger = loggo.GetLogger("plugin-migrate.schema")

var lengthArgument = regexp.MustCompile(`\(\s*(\d+)`)

// Analyze introspects a live database schema into a normalized Model, tables
// sorted by dependency.
func Analyze(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) (*Model, error) {
	target := d.GetSchemaName(schemaName)
	logger.Debugf("analyzing schema %q with %s", target, d.DriverName())

	// Keys are upper-cased so Oracle's catalog casing still matches.
	a := &analyzer{db: db, d: d, target: target, tables: make(map[string]*Table)}

	if err := a.readTables(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	if err := a.readColumns(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	if err := a.readForeignKeys(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	if err := a.readIndexes(ctx); err != nil {
		return nil, errors.Trace(err)
	}

	m := &Model{Tables: a.order}
	m.Normalize()
	m.Tables = SortTablesByFKCount(m.Tables)
	logger.Infof("analyzed %d tables in schema %q", len(m.Tables), target)
	return m, nil
}

type analyzer struct {
	db     *sql.DB
	d      dialect.Dialect
	target string

	tables map[string]*Table
	order  []*Table
}

func (a *analyzer) table(name string) *Table {
	return a.tables[strings.ToUpper(name)]
}

func (a *analyzer) readTables(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, a.d.GetTablesQuery(a.target), a.target)
	if err != nil {
		return errors.Annotate(err, "querying tables")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Annotate(err, "scanning table name")
		}
		t := &Table{Name: name}
		a.tables[strings.ToUpper(name)] = t
		a.order = append(a.order, t)
	}
	return errors.Annotate(rows.Err(), "iterating tables")
}

func (a *analyzer) readColumns(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, a.d.GetColumnsQuery(a.target), a.target)
	if err != nil {
		return errors.Annotate(err, "querying columns")
	}
	defer rows.Close()

	for rows.Next() {
		var tName, cName, dType, cType, cLen, isNull, cKey, extra, isUnique, comment sql.NullString
		if err := rows.Scan(&tName, &cName, &dType, &cType, &cLen, &isNull, &cKey, &extra, &isUnique, &comment); err != nil {
			return errors.Annotatef(err, "scanning column of table %s", tName.String)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}
		t := a.table(tName.String)
		if t == nil {
			continue
		}

		baseType := strings.ToLower(strings.TrimSpace(dType.String))
		if i := strings.Index(baseType, "("); i >= 0 {
			baseType = strings.TrimSpace(baseType[:i])
		}
		extraLower := strings.ToLower(extra.String)
		col := &Column{
			Name:     cName.String,
			DataType: baseType,
			// The store type is kept as reported; only the CLR mapping goes
			// through the dialect's normalization.
			ClrType:    ClrTypeFor(a.d.NormalizeType(baseType)),
			IsNullable: isNull.String == "YES" || isNull.String == "Y",
			IsPK:       strings.Contains(cKey.String, "PRI"),
			IsAutoInc: strings.Contains(extraLower, "auto_increment") ||
				strings.Contains(extraLower, "identity") ||
				strings.Contains(extraLower, "nextval"),
			IsUnique: strings.Contains(isUnique.String, "UNIQUE"),
			Comment:  comment.String,
		}
		col.Length = parseLength(cLen.String)
		if col.Length == 0 {
			col.Length = parseLength(cType.String)
		}
		if col.Length == 0 {
			col.Length = parseLength(dType.String)
		}
		if !lengthTypes[col.DataType] {
			col.Length = 0
		}
		t.Columns = append(t.Columns, col)
	}
	return errors.Annotate(rows.Err(), "iterating columns")
}

// parseLength reads a plain number ("64", "64.0") or the first argument of a
// type expression ("varchar(64)").
func parseLength(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	if m := lengthArgument.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func (a *analyzer) readForeignKeys(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, a.d.GetForeignKeysQuery(a.target), a.target)
	if err != nil {
		return errors.Annotate(err, "querying foreign keys")
	}
	defer rows.Close()

	type constraintKey struct{ table, name string }
	seen := make(map[constraintKey]*ForeignKey)

	for rows.Next() {
		var tName, cConst, cName, rTable, rCol, rule sql.NullString
		if err := rows.Scan(&tName, &cConst, &cName, &rTable, &rCol, &rule); err != nil {
			return errors.Annotate(err, "scanning foreign key")
		}
		t := a.table(tName.String)
		principal := a.table(rTable.String)
		if t == nil || principal == nil {
			// References outside the analyzed schema cannot be reproduced.
			logger.Debugf("skipping foreign key %s of %s to %s", cConst.String, tName.String, rTable.String)
			continue
		}

		key := constraintKey{table: t.Name, name: cConst.String}
		fk, ok := seen[key]
		if !ok {
			fk = &ForeignKey{
				Name:     cConst.String,
				RefTable: principal.Name,
				OnDelete: referentialAction(rule.String),
			}
			// Generated names only group rows; conventional names replace them.
			if strings.HasPrefix(fk.Name, "#") {
				fk.Name = ""
			}
			seen[key] = fk
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		fk.Columns = append(fk.Columns, cName.String)
		if rCol.Valid && rCol.String != "" {
			fk.RefColumns = append(fk.RefColumns, rCol.String)
		}
	}
	return errors.Annotate(rows.Err(), "iterating foreign keys")
}

func referentialAction(rule string) string {
	switch strings.ToUpper(strings.TrimSpace(rule)) {
	case "CASCADE":
		return "Cascade"
	case "SET NULL":
		return "SetNull"
	case "SET DEFAULT":
		return "SetDefault"
	case "RESTRICT":
		return "Restrict"
	case "NO ACTION":
		return "NoAction"
	}
	return ""
}

func (a *analyzer) readIndexes(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, a.d.GetIndexesQuery(a.target), a.target)
	if err != nil {
		return errors.Annotate(err, "querying indexes")
	}
	defer rows.Close()

	for rows.Next() {
		var tName, iName, cName, isUnique sql.NullString
		if err := rows.Scan(&tName, &iName, &cName, &isUnique); err != nil {
			return errors.Annotate(err, "scanning index")
		}
		t := a.table(tName.String)
		if t == nil || !iName.Valid || !cName.Valid {
			continue
		}
		idx := t.Index(iName.String)
		if idx == nil {
			idx = &Index{Name: iName.String, Unique: isUnique.String == "UNIQUE"}
			t.Indexes = append(t.Indexes, idx)
		}
		idx.Columns = append(idx.Columns, cName.String)
	}
	return errors.Annotate(rows.Err(), "iterating indexes")
}

// SortTablesByFKCount sorts tables so that every table follows the tables it
// references. Cycles are broken by a score preferring tables with fewer
// unresolved dependencies that take part in a two-table cycle.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	for len(sorted) < len(tables) {
		added := false

		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			ready := true
			for _, dep := range t.Dependencies {
				// Dependencies outside the set (shared tables) are satisfied.
				if _, known := byName[dep]; known && !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}
		if added {
			continue
		}

		var best *Table
		bestScore := 0
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			score := 0
			circular := false
			for _, dep := range t.Dependencies {
				if processed[dep] {
					continue
				}
				score -= 100
				if cand, ok := byName[dep]; ok && slices.Contains(cand.Dependencies, t.Name) {
					circular = true
				}
			}
			if circular {
				score += 500
			}
			if best == nil || score > bestScore || (score == bestScore && t.Name > best.Name) {
				best, bestScore = t, score
			}
		}
		if best == nil {
			logger.Errorf("cannot order remaining %d tables", len(tables)-len(sorted))
			break
		}
		sorted = append(sorted, best)
		processed[best.Name] = true
		logger.Debugf("breaking circular dependency at %s (score %d)", best.Name, bestScore)
	}

	return sorted
}
