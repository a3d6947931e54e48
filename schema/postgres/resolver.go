package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/schema"
)

// Resolver introspects PostgreSQL's information_schema to resolve table schemas.
// Model names are table names.
type Resolver struct {
	db     *sql.DB
	schema string
}

// Compile-time check that Resolver implements SchemaResolver.
var _ tablesync.SchemaResolver = (*Resolver)(nil)

// Config configures the PostgreSQL resolver.
type Config struct {
	// Schema is the PostgreSQL schema holding the tables.
	// Empty means current_schema().
	Schema string
}

// New creates a resolver for tables in the current schema.
func New(db *sql.DB) *Resolver {
	return NewWithConfig(db, Config{})
}

// NewWithConfig creates a resolver with a custom configuration.
func NewWithConfig(db *sql.DB, config Config) *Resolver {
	return &Resolver{
		db:     db,
		schema: config.Schema,
	}
}

const columnsQuery = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($2, ''), current_schema())
		  AND table_name = $1
		ORDER BY ordinal_position
	`

const constraintsQuery = `
		SELECT tc.constraint_name, tc.constraint_type = 'PRIMARY KEY', kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = COALESCE(NULLIF($2, ''), current_schema())
		  AND tc.table_name = $1
		  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.constraint_name, kcu.ordinal_position
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
	rows, err := r.db.QueryContext(ctx, columnsQuery, table, r.schema)
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
	rows, err := r.db.QueryContext(ctx, constraintsQuery, table, r.schema)
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
