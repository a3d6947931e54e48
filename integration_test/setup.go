//go:build integration

package integration_test

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/xo/dburl"
)

// Table definitions per dialect. Both tables share the column set of the
// model being renamed.
var ddl = map[string][]string{
	"postgres": {
		`CREATE TABLE testapp_oldmodel (id SERIAL PRIMARY KEY, text TEXT NOT NULL, number INT NOT NULL, group_id INT)`,
		`CREATE TABLE testapp_newmodel (id SERIAL PRIMARY KEY, text TEXT NOT NULL, number INT NOT NULL, group_id INT)`,
	},
	"mysql": {
		`CREATE TABLE testapp_oldmodel (id INT AUTO_INCREMENT PRIMARY KEY, text VARCHAR(255) NOT NULL, number INT NOT NULL, group_id INT)`,
		`CREATE TABLE testapp_newmodel (id INT AUTO_INCREMENT PRIMARY KEY, text VARCHAR(255) NOT NULL, number INT NOT NULL, group_id INT)`,
	},
}

// getTestDB returns the database URL and a connection for integration tests.
// It reads the given environment variable and skips the test if not set.
func getTestDB(t *testing.T, envVar string) (string, *sql.DB) {
	t.Helper()

	dbURL := os.Getenv(envVar)
	if dbURL == "" {
		t.Skipf("%s not set, skipping integration test", envVar)
	}

	db, err := dburl.Open(dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return dbURL, db
}

// setupTables creates the test tables and seeds the old one.
func setupTables(t *testing.T, db *sql.DB, dialect string) {
	t.Helper()

	teardownTables(t, db)
	for _, stmt := range ddl[dialect] {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create tables: %v", err)
		}
	}

	seed := []string{
		`INSERT INTO testapp_oldmodel (id, text, number, group_id) VALUES (1, 'first', 1, NULL)`,
		`INSERT INTO testapp_oldmodel (id, text, number, group_id) VALUES (2, 'second', 2, 7)`,
		`INSERT INTO testapp_newmodel (id, text, number, group_id) VALUES (2, 'stale', 0, NULL)`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed tables: %v", err)
		}
	}
}

// teardownTables drops the test tables.
// Errors are logged but don't fail the test.
func teardownTables(t *testing.T, db *sql.DB) {
	t.Helper()

	for _, table := range []string{"testapp_oldmodel", "testapp_newmodel"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			t.Logf("warning: failed to drop %s: %v", table, err)
		}
	}
}
