package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/schema"
)

// Resolver reads SQLite table metadata through the pragma table-valued
// functions. Model names are table names.
type Resolver struct {
	db *sql.DB
}

// Compile-time check that Resolver implements SchemaResolver.
var _ tablesync.SchemaResolver = (*Resolver)(nil)

// New creates a resolver for tables in the main database.
func New(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

const columnsQuery = `SELECT name, pk FROM pragma_table_info(?) ORDER BY cid`

// Unique indexes include the automatic index of a non-integer primary key.
const uniqueIndexesQuery = `
		SELECT il.name, ii.name
		FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
		WHERE il."unique" = 1 AND ii.name IS NOT NULL
		ORDER BY il.name, ii.seqno
	`

// Resolve returns the schema of the named table.
// Returns ErrModelNotFound if the table does not exist.
func (r *Resolver) Resolve(ctx context.Context, name string) (tablesync.TableSchema, error) {
	columns, primary, err := r.columns(ctx, name)
	if err != nil {
		return tablesync.TableSchema{}, err
	}
	if len(columns) == 0 {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s", tablesync.ErrModelNotFound, name)
	}

	constraints, err := r.uniqueIndexes(ctx, name)
	if err != nil {
		return tablesync.TableSchema{}, err
	}
	if len(primary) > 0 {
		constraints = append(constraints, schema.Constraint{Name: "primary", Primary: true, Columns: primary})
	}

	return schema.Assemble(name, columns, constraints)
}

func (r *Resolver) columns(ctx context.Context, table string) (columns, primary []string, err error) {
	rows, err := r.db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	// pk is the 1-based position within the primary key, 0 for other columns.
	byPosition := make(map[int]string)
	for rows.Next() {
		var column string
		var pk int
		if err := rows.Scan(&column, &pk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, column)
		if pk > 0 {
			byPosition[pk] = column
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating columns: %w", err)
	}

	for i := 1; i <= len(byPosition); i++ {
		primary = append(primary, byPosition[i])
	}

	return columns, primary, nil
}

func (r *Resolver) uniqueIndexes(ctx context.Context, table string) (constraints []schema.Constraint, err error) {
	rows, err := r.db.QueryContext(ctx, uniqueIndexesQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique indexes: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	var cols []schema.ConstraintColumn
	for rows.Next() {
		var c schema.ConstraintColumn
		if err := rows.Scan(&c.Constraint, &c.Column); err != nil {
			return nil, fmt.Errorf("failed to scan unique index: %w", err)
		}
		cols = append(cols, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unique indexes: %w", err)
	}

	return schema.GroupConstraints(cols), nil
}
