package tablesync

import "errors"

var (
	// ErrSchemaMismatch indicates the old and new tables do not have the same set of columns.
	// No SQL is rendered or executed when this is returned.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrModelNotFound indicates a table schema could not be resolved.
	// Operations treat a missing old model as intentionally removed and skip.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidIdentifier indicates a table or column name is not safe to embed in SQL.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidSchema indicates a schema descriptor is malformed.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnknownEvent indicates a trigger event name is not insert, update, or delete.
	ErrUnknownEvent = errors.New("unknown trigger event")

	// ErrUnsupportedDialect indicates the SQL dialect has no statement templates.
	ErrUnsupportedDialect = errors.New("unsupported dialect")
)
