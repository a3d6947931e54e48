package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/schema"
)

// Resolver introspects MySQL/MariaDB information_schema to resolve table
// schemas in the connection's current database. Model names are table names.
type Resolver struct {
	db *sql.DB
}

// Compile-time check that Resolver implements SchemaResolver.
var _ tablesync.SchemaResolver = (*Resolver)(nil)

// New creates a resolver for tables in the current database.
func New(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

const columnsQuery = `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

// The primary key constraint is always named PRIMARY in MySQL.
const constraintsQuery = `
		SELECT tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE = 'PRIMARY KEY', kcu.COLUMN_NAME
		FROM information_schema.TABLE_CONSTRAINTS tc
		JOIN information_schema.KEY_COLUMN_USAGE kcu
		  ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
		 AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		 AND kcu.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = DATABASE()
		  AND tc.TABLE_NAME = ?
		  AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`

// Resolve returns the schema of the named table.
// Returns ErrModelNotFound if the table does not exist.
func (r *Resolver) Resolve(ctx context.Context, name string) (tablesync.TableSchema, error) {
	columns, err := r.columns(ctx, name)
	if err != nil {
		return tablesync.TableSchema{}, err
	}
	if len(columns) == 0 {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s", tablesync.ErrModelNotFound, name)
	}

	constraints, err := r.constraints(ctx, name)
	if err != nil {
		return tablesync.TableSchema{}, err
	}

	return schema.Assemble(name, columns, constraints)
}

func (r *Resolver) columns(ctx context.Context, table string) (columns []string, err error) {
	rows, err := r.db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}

func (r *Resolver) constraints(ctx context.Context, table string) (constraints []schema.Constraint, err error) {
	rows, err := r.db.QueryContext(ctx, constraintsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	var cols []schema.ConstraintColumn
	for rows.Next() {
		var c schema.ConstraintColumn
		if err := rows.Scan(&c.Constraint, &c.Primary, &c.Column); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		cols = append(cols, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraints: %w", err)
	}

	return schema.GroupConstraints(cols), nil
}
