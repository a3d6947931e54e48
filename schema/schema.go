// Package schema resolves model names to table schemas.
// Catalog-backed resolvers live in the postgres, mysql and sqlite subpackages;
// memory holds a static registry for tests and offline rendering.
package schema

import (
	"fmt"

	"github.com/getpup/pupsourcing-tablesync"
)

// Constraint is a primary key or unique constraint as reported by a database catalog.
type Constraint struct {
	// Name is the constraint or index name.
	Name string

	// Primary marks the primary key constraint.
	Primary bool

	// Columns are the constrained columns.
	Columns []string
}

// Assemble builds a TableSchema from catalog rows.
// Returns ErrModelNotFound if columns is empty, and ErrInvalidSchema if the
// table has no primary key or a composite one.
// Only single-column constraints contribute to UniqueColumns.
func Assemble(table string, columns []string, constraints []Constraint) (tablesync.TableSchema, error) {
	if len(columns) == 0 {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s", tablesync.ErrModelNotFound, table)
	}

	var primary []string
	unique := make(map[string]bool)
	for _, c := range constraints {
		if c.Primary {
			if primary != nil {
				return tablesync.TableSchema{}, fmt.Errorf("%w: %s has more than one primary key", tablesync.ErrInvalidSchema, table)
			}
			primary = c.Columns
		}
		if len(c.Columns) == 1 {
			unique[c.Columns[0]] = true
		}
	}

	if len(primary) != 1 {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s must have a single-column primary key (got %v)", tablesync.ErrInvalidSchema, table, primary)
	}

	s := tablesync.TableSchema{
		Table:      table,
		Columns:    append([]string(nil), columns...),
		PrimaryKey: primary[0],
	}
	for _, col := range columns {
		if unique[col] {
			s.UniqueColumns = append(s.UniqueColumns, col)
		}
	}

	return s, nil
}

// GroupConstraints folds (constraint, column) rows, in catalog order, into constraints.
func GroupConstraints(rows []ConstraintColumn) []Constraint {
	var out []Constraint
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Constraint]
		if !ok {
			i = len(out)
			index[r.Constraint] = i
			out = append(out, Constraint{Name: r.Constraint, Primary: r.Primary})
		}
		out[i].Columns = append(out[i].Columns, r.Column)
	}
	return out
}

// ConstraintColumn is one column of a constraint as returned by a catalog query.
type ConstraintColumn struct {
	Constraint string
	Primary    bool
	Column     string
}
