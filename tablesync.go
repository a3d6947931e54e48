// Package tablesync keeps a renamed table and its replacement in sync while
// old and new application code run side by side. It copies existing rows from
// the old table into the new one and installs insert, update and delete
// triggers that mirror every later write.
package tablesync

import "context"

// SchemaEditor executes SQL against a single database session.
// Implementations must run every statement on the same session so that
// explicit BEGIN and COMMIT statements delimit one transaction.
type SchemaEditor interface {
	Execute(ctx context.Context, sql string) error
}

// SchemaResolver resolves a model name to the schema of its table.
// Returns ErrModelNotFound if the name does not resolve.
type SchemaResolver interface {
	Resolve(ctx context.Context, name string) (TableSchema, error)
}

// Operation is a reversible table duplication step driven by a migration host.
type Operation interface {
	// Forward applies the operation.
	Forward(ctx context.Context, editor SchemaEditor, resolver SchemaResolver) error

	// Backward reverts the operation.
	Backward(ctx context.Context, editor SchemaEditor, resolver SchemaResolver) error

	// Describe returns a human readable summary of the operation.
	Describe() string

	// Reversible reports whether Backward is supported.
	Reversible() bool
}

// WarnLogger is implemented by loggers that support a warning level.
// Loggers without it receive warnings at info level.
type WarnLogger interface {
	Warn(ctx context.Context, msg string, args ...interface{})
}
