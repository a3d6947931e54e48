package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/builder"
	"github.com/getpup/pupsourcing-tablesync/editor"
	"github.com/getpup/pupsourcing-tablesync/operation"
	"github.com/getpup/pupsourcing-tablesync/schema/memory"
)

// Operation names accepted in Config.Operation.
const (
	OperationCreate  = "create"
	OperationRelease = "release"
)

// validateConfig validates all configuration values to prevent SQL injection.
func validateConfig(config *Config) error {
	if err := tablesync.ValidateIdentifier(config.OldTable, "OldTable"); err != nil {
		return err
	}
	if err := tablesync.ValidateIdentifier(config.NewTable, "NewTable"); err != nil {
		return err
	}
	if config.OldTable == config.NewTable {
		return fmt.Errorf("OldTable and NewTable must differ (got: %s)", config.OldTable)
	}
	if len(config.Columns) == 0 {
		return fmt.Errorf("Columns cannot be empty")
	}
	for _, c := range config.Columns {
		if err := tablesync.ValidateIdentifier(c, "Columns"); err != nil {
			return err
		}
	}
	if config.Operation != OperationCreate && config.Operation != OperationRelease {
		return fmt.Errorf("Operation must be %q or %q (got: %s)", OperationCreate, OperationRelease, config.Operation)
	}
	if config.OutputFilename == "" {
		return fmt.Errorf("OutputFilename cannot be empty")
	}
	return nil
}

// Config configures migration generation for one table pair.
type Config struct {
	// OutputFolder is the directory where the migration files will be written
	OutputFolder string

	// OutputFilename is the base name of the migration files. ".up.sql" and
	// ".down.sql" are appended.
	OutputFilename string

	// Dialect is postgres, mysql or sqlite
	Dialect string

	// Operation is "create" to install the triggers on up, or "release" to
	// drop them on up
	Operation string

	// OldTable is the table being replaced
	OldTable string

	// NewTable is the replacement table
	NewTable string

	// Columns lists the columns shared by both tables in order
	Columns []string

	// PrimaryKey is the single-column primary key shared by both tables
	PrimaryKey string

	// UniqueColumns lists single-column unique constraints
	UniqueColumns []string
}

// DefaultConfig returns the default configuration for duplication migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_table_duplication", timestamp),
		Dialect:        string(builder.Postgres),
		Operation:      OperationCreate,
		PrimaryKey:     "id",
	}
}

// Render returns the up and down migration scripts without writing them.
func Render(config *Config) (up, down string, err error) {
	if err := validateConfig(config); err != nil {
		return "", "", fmt.Errorf("invalid configuration: %w", err)
	}

	dialect, err := builder.ParseDialect(config.Dialect)
	if err != nil {
		return "", "", err
	}
	b, err := builder.New(dialect)
	if err != nil {
		return "", "", err
	}

	resolver := memory.New()
	for _, table := range []string{config.OldTable, config.NewTable} {
		err := resolver.Register(table, tablesync.TableSchema{
			Table:         table,
			Columns:       config.Columns,
			UniqueColumns: config.UniqueColumns,
			PrimaryKey:    config.PrimaryKey,
		})
		if err != nil {
			return "", "", fmt.Errorf("invalid configuration: %w", err)
		}
	}

	var op tablesync.Operation
	if config.Operation == OperationCreate {
		op = operation.NewCreateDuplication(config.OldTable, config.NewTable, operation.WithBuilder(b))
	} else {
		op = operation.NewReleaseDuplication(config.OldTable, config.NewTable, operation.WithBuilder(b))
	}

	ctx := context.Background()
	header := func(direction tablesync.Direction) string {
		return fmt.Sprintf(`-- %s (%s)
-- Generated: %s
-- Database: %s

`, op.Describe(), direction, time.Now().Format(time.RFC3339), databaseName(dialect))
	}

	rec := editor.NewRecorder()
	if err := op.Forward(ctx, rec, resolver); err != nil {
		return "", "", fmt.Errorf("failed to render up migration: %w", err)
	}
	up = header(tablesync.Forward) + rec.Script()

	rec.Reset()
	if err := op.Backward(ctx, rec, resolver); err != nil {
		return "", "", fmt.Errorf("failed to render down migration: %w", err)
	}
	down = header(tablesync.Backward) + rec.Script()

	return up, down, nil
}

// Generate renders the migration and writes <OutputFilename>.up.sql and
// <OutputFilename>.down.sql into OutputFolder.
func Generate(config *Config) (up, down string, err error) {
	up, down, err = Render(config)
	if err != nil {
		return "", "", err
	}

	// Ensure output folder exists
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output folder: %w", err)
	}

	base := strings.TrimSuffix(config.OutputFilename, ".sql")
	files := map[string]string{
		base + ".up.sql":   up,
		base + ".down.sql": down,
	}
	for name, content := range files {
		outputPath := filepath.Join(config.OutputFolder, name)
		if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
			return "", "", fmt.Errorf("failed to write migration file: %w", err)
		}
	}

	return up, down, nil
}

func databaseName(dialect builder.Dialect) string {
	switch dialect {
	case builder.MySQL:
		return "MySQL/MariaDB"
	case builder.SQLite:
		return "SQLite"
	default:
		return "PostgreSQL"
	}
}
