// Package builder renders the SQL statements that keep an old table and its
// replacement in sync: trigger creation and removal per row event, the
// initial data copy, and the transaction statements wrapped around them.
package builder

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/builder/templates"
	"github.com/getpup/pupsourcing/es"
)

// Dialect selects the SQL flavour rendered by a Builder.
type Dialect string

const (
	// Postgres renders plpgsql trigger functions.
	Postgres Dialect = "postgres"

	// MySQL renders single-statement MySQL/MariaDB triggers.
	MySQL Dialect = "mysql"

	// SQLite renders SQLite triggers.
	SQLite Dialect = "sqlite"
)

// ParseDialect maps a dialect or driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", tablesync.ErrUnsupportedDialect, name)
	}
}

var funcs = template.FuncMap{
	"join":    func(list []string, sep string) string { return strings.Join(list, sep) },
	"each":    each,
	"without": without,
}

func each(format string, list []string) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = fmt.Sprintf(format, v)
	}
	return out
}

func without(list []string, item string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

// Builder renders statements for one dialect. It is safe for concurrent use.
type Builder struct {
	dialect Dialect
	logger  es.Logger

	createTemplates map[tablesync.TriggerEvent]*template.Template
	drop            *template.Template
	copyData        *template.Template
	begin           *template.Template
	lock            *template.Template
	commit          *template.Template
	rollback        *template.Template
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets a logger that receives every rendered statement at debug level.
func WithLogger(logger es.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a Builder for the given dialect.
// Returns ErrUnsupportedDialect if no templates exist for the dialect.
func New(dialect Dialect, opts ...Option) (*Builder, error) {
	set, ok := templates.For(string(dialect))
	if !ok {
		return nil, fmt.Errorf("%w: %s", tablesync.ErrUnsupportedDialect, dialect)
	}

	b := &Builder{dialect: dialect}
	for _, opt := range opts {
		opt(b)
	}

	var err error
	parse := func(name, text string) *template.Template {
		if err != nil {
			return nil
		}
		var t *template.Template
		t, err = template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
		return t
	}

	b.createTemplates = map[tablesync.TriggerEvent]*template.Template{
		tablesync.EventInsert: parse("create_insert_trigger", set.CreateInsert),
		tablesync.EventUpdate: parse("create_update_trigger", set.CreateUpdate),
		tablesync.EventDelete: parse("create_delete_trigger", set.CreateDelete),
	}
	b.drop = parse("drop_trigger", set.Drop)
	b.copyData = parse("copy_table", set.Copy)
	b.begin = parse("begin", set.Begin)
	b.lock = parse("lock", set.Lock)
	b.commit = parse("commit", set.Commit)
	b.rollback = parse("rollback", set.Rollback)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s templates: %w", dialect, err)
	}

	return b, nil
}

// MustNew is like New but panics on error. Intended for package-level defaults.
func MustNew(dialect Dialect, opts ...Option) *Builder {
	b, err := New(dialect, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Dialect returns the dialect this Builder renders.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Context returns the template context for a schema with every key prefixed,
// except pk_name which is shared between old and new contexts.
func Context(schema tablesync.TableSchema, prefix string) map[string]any {
	return contextFor(schema, prefix, false)
}

func contextFor(schema tablesync.TableSchema, prefix string, ignoreUnique bool) map[string]any {
	columns := make([]string, len(schema.Columns))
	copy(columns, schema.Columns)

	unique := []string{}
	if !ignoreUnique {
		unique = make([]string, len(schema.UniqueColumns))
		copy(unique, schema.UniqueColumns)
	}

	return map[string]any{
		prefix + "_db_table_name":       schema.Table,
		prefix + "_column_names":        columns,
		prefix + "_unique_column_names": unique,
		"pk_name":                       schema.PrimaryKey,
	}
}

// mergedContext layers the old context over the new one, so pk_name comes from old.
func mergedContext(old, new tablesync.TableSchema, ignoreUnique bool) map[string]any {
	ctx := contextFor(new, "new", ignoreUnique)
	for k, v := range contextFor(old, "old", ignoreUnique) {
		ctx[k] = v
	}
	return ctx
}

func checkSchemas(old, new tablesync.TableSchema) error {
	if !old.SameColumns(new) {
		return fmt.Errorf("%w: %v <=> %v", tablesync.ErrSchemaMismatch, old.Columns, new.Columns)
	}
	if err := old.Validate(); err != nil {
		return err
	}
	return new.Validate()
}

func checkNames(old, new tablesync.TableSchema) error {
	if err := tablesync.ValidateIdentifier(old.Table, "old table"); err != nil {
		return err
	}
	return tablesync.ValidateIdentifier(new.Table, "new table")
}

func validEvent(event tablesync.TriggerEvent) error {
	_, err := tablesync.ParseTriggerEvent(string(event))
	return err
}

// CreateTrigger renders the statements creating the trigger for one event.
// Returns ErrSchemaMismatch if the column sets of old and new differ.
// Unique column data is left out of the update context; the update template
// matches rows by primary key only.
func (b *Builder) CreateTrigger(event tablesync.TriggerEvent, old, new tablesync.TableSchema) (string, error) {
	if err := validEvent(event); err != nil {
		return "", err
	}
	if err := checkSchemas(old, new); err != nil {
		return "", err
	}

	data := mergedContext(old, new, event == tablesync.EventUpdate)
	data["event"] = string(event)

	statement, err := render(b.createTemplates[event], data)
	if err != nil {
		return "", err
	}

	b.debug(fmt.Sprintf("create %s trigger statement", event), statement)
	return statement, nil
}

// DropTrigger renders the statements dropping the trigger for one event.
func (b *Builder) DropTrigger(event tablesync.TriggerEvent, old, new tablesync.TableSchema) (string, error) {
	if err := validEvent(event); err != nil {
		return "", err
	}
	if err := checkNames(old, new); err != nil {
		return "", err
	}

	data := mergedContext(old, new, false)
	data["event"] = string(event)

	statement, err := render(b.drop, data)
	if err != nil {
		return "", err
	}

	b.debug(fmt.Sprintf("drop %s trigger statement", event), statement)
	return statement, nil
}

// CopyTableData renders the upsert copying every row of old into new.
// Returns ErrSchemaMismatch if the column sets of old and new differ.
func (b *Builder) CopyTableData(old, new tablesync.TableSchema) (string, error) {
	if err := checkSchemas(old, new); err != nil {
		return "", err
	}

	statement, err := render(b.copyData, mergedContext(old, new, false))
	if err != nil {
		return "", err
	}

	b.debug(fmt.Sprintf("copy %s -> %s statement", old.Table, new.Table), statement)
	return statement, nil
}

// CreateInsertTrigger renders the insert trigger.
func (b *Builder) CreateInsertTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.CreateTrigger(tablesync.EventInsert, old, new)
}

// CreateUpdateTrigger renders the update trigger.
func (b *Builder) CreateUpdateTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.CreateTrigger(tablesync.EventUpdate, old, new)
}

// CreateDeleteTrigger renders the delete trigger.
func (b *Builder) CreateDeleteTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.CreateTrigger(tablesync.EventDelete, old, new)
}

// DropInsertTrigger renders the insert trigger removal.
func (b *Builder) DropInsertTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.DropTrigger(tablesync.EventInsert, old, new)
}

// DropUpdateTrigger renders the update trigger removal.
func (b *Builder) DropUpdateTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.DropTrigger(tablesync.EventUpdate, old, new)
}

// DropDeleteTrigger renders the delete trigger removal.
func (b *Builder) DropDeleteTrigger(old, new tablesync.TableSchema) (string, error) {
	return b.DropTrigger(tablesync.EventDelete, old, new)
}

// Begin returns the statements opening a repeatable-read transaction.
func (b *Builder) Begin() ([]string, error) {
	return renderLines(b.begin, map[string]any{})
}

// Lock returns the statements blocking writers to old for the rest of the transaction.
// It is empty for dialects where Begin already holds an exclusive lock.
func (b *Builder) Lock(old, new tablesync.TableSchema) ([]string, error) {
	if err := checkNames(old, new); err != nil {
		return nil, err
	}
	return renderLines(b.lock, mergedContext(old, new, false))
}

// Commit returns the statements committing the transaction and releasing locks.
func (b *Builder) Commit() ([]string, error) {
	return renderLines(b.commit, map[string]any{})
}

// Rollback returns the statements aborting the transaction and releasing locks.
func (b *Builder) Rollback() ([]string, error) {
	return renderLines(b.rollback, map[string]any{})
}

// FunctionName returns the name of the trigger function for an event.
func FunctionName(event tablesync.TriggerEvent, old, new tablesync.TableSchema) string {
	return fmt.Sprintf("%s_to_%s_%s", old.Table, new.Table, event)
}

// TriggerName returns the name of the trigger for an event.
func TriggerName(event tablesync.TriggerEvent, old, new tablesync.TableSchema) string {
	return FunctionName(event, old, new) + "_trigger"
}

func render(t *template.Template, data map[string]any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}

func renderLines(t *template.Template, data map[string]any) ([]string, error) {
	text, err := render(t, data)
	if err != nil {
		return nil, err
	}

	var statements []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			statements = append(statements, line)
		}
	}
	return statements, nil
}

func (b *Builder) debug(msg, statement string) {
	if b.logger != nil {
		b.logger.Debug(context.Background(), msg, "dialect", b.dialect, "sql_statement", statement)
	}
}
