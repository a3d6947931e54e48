// Command migrate-gen generates SQL migration files that install or remove
// the triggers keeping a renamed table in sync with its replacement.
//
// Usage:
//
//	go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -old users -new accounts -columns id,name,email -output migrations
//
// Or with go generate:
//
//	//go:generate go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -old users -new accounts -columns id,name -output migrations
//
// Generate migrations for different database adapters:
//
//	go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -adapter postgres -old users -new accounts -columns id,name
//	go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -adapter mysql -old users -new accounts -columns id,name
//	go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -adapter sqlite -old users -new accounts -columns id,name
//
// Drop the triggers once the old table is retired:
//
//	go run github.com/getpup/pupsourcing-tablesync/cmd/migrate-gen -op release -old users -new accounts -columns id,name
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getpup/pupsourcing-tablesync/pkg/migrations"
)

func main() {
	var (
		adapter        = flag.String("adapter", "postgres", "Database adapter: postgres, mysql, or sqlite")
		op             = flag.String("op", migrations.OperationCreate, "Operation: create or release")
		oldTable       = flag.String("old", "", "Table being replaced")
		newTable       = flag.String("new", "", "Replacement table")
		columns        = flag.String("columns", "", "Comma separated columns shared by both tables")
		primaryKey     = flag.String("pk", "id", "Primary key column")
		unique         = flag.String("unique", "", "Comma separated single-column unique constraints")
		outputFolder   = flag.String("output", "migrations", "Output folder for migration files")
		outputFilename = flag.String("filename", "", "Output base filename (default: timestamp-based)")
	)

	flag.Parse()

	config := migrations.DefaultConfig()
	config.OutputFolder = *outputFolder
	config.Dialect = *adapter
	config.Operation = *op
	config.OldTable = *oldTable
	config.NewTable = *newTable
	config.Columns = splitList(*columns)
	config.PrimaryKey = *primaryKey
	config.UniqueColumns = splitList(*unique)

	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	} else {
		config.OutputFilename = fmt.Sprintf("%s_%s_%s", config.OutputFilename, *op, *oldTable)
	}

	switch *adapter {
	case "postgres", "mysql", "sqlite":
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported adapter '%s'. Supported adapters are: postgres, mysql, sqlite\n", *adapter)
		os.Exit(1)
	}

	if _, _, err := migrations.Generate(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	base := filepath.Join(config.OutputFolder, strings.TrimSuffix(config.OutputFilename, ".sql"))
	fmt.Printf("Generated %s migration: %s.up.sql, %s.down.sql\n", *adapter, base, base)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
