package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/getpup/pupsourcing-tablesync"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "resolver.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestResolve_IntegerPrimaryKey(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Exec(`CREATE TABLE testapp_oldmodel (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		number INTEGER NOT NULL,
		group_id INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	s, err := New(db).Resolve(ctx, "testapp_oldmodel")
	require.NoError(t, err)

	assert.Equal(t, tablesync.TableSchema{
		Table:         "testapp_oldmodel",
		Columns:       []string{"id", "text", "number", "group_id"},
		UniqueColumns: []string{"id"},
		PrimaryKey:    "id",
	}, s)
}

func TestResolve_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Exec(`CREATE TABLE accounts (
		uuid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		org TEXT NOT NULL,
		handle TEXT NOT NULL,
		UNIQUE (org, handle)
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE UNIQUE INDEX accounts_handle ON accounts (handle)`)
	require.NoError(t, err)

	s, err := New(db).Resolve(ctx, "accounts")
	require.NoError(t, err)

	assert.Equal(t, "uuid", s.PrimaryKey)
	assert.Equal(t, []string{"uuid", "email", "org", "handle"}, s.Columns)
	assert.Equal(t, []string{"uuid", "email", "handle"}, s.UniqueColumns)
}

func TestResolve_MissingTable(t *testing.T) {
	_, err := New(openTestDB(t)).Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, tablesync.ErrModelNotFound)
}

func TestResolve_CompositePrimaryKey(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Exec(`CREATE TABLE memberships (user_id INTEGER, group_id INTEGER, PRIMARY KEY (user_id, group_id))`)
	require.NoError(t, err)

	_, err = New(db).Resolve(ctx, "memberships")
	assert.ErrorIs(t, err, tablesync.ErrInvalidSchema)
}
