// Package migrations generates SQL migration files that install or remove the
// triggers keeping a renamed table in sync with its replacement, for
// PostgreSQL, MySQL/MariaDB and SQLite migration tools that run plain SQL.
package migrations
