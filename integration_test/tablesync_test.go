//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/pupsourcing-tablesync/pkg/tablesync"
)

type row struct {
	text   string
	number int
}

func newRow(t *testing.T, db *sql.DB, id int) (row, bool) {
	t.Helper()

	var r row
	err := db.QueryRow(`SELECT text, number FROM testapp_newmodel WHERE id = ` + strconv.Itoa(id)).Scan(&r.text, &r.number)
	if err == sql.ErrNoRows {
		return row{}, false
	}
	require.NoError(t, err)
	return r, true
}

func exec(t *testing.T, db *sql.DB, stmt string) {
	t.Helper()
	_, err := db.Exec(stmt)
	require.NoError(t, err)
}

// testLifecycle duplicates testapp_oldmodel into testapp_newmodel, checks
// every write is mirrored, then releases the duplication.
func testLifecycle(t *testing.T, envVar, dialect string) {
	ctx := context.Background()
	url, db := getTestDB(t, envVar)
	defer db.Close()

	setupTables(t, db, dialect)
	defer teardownTables(t, db)

	syncer, err := tablesync.Open(ctx, url, tablesync.WithMetricsEnabled(false))
	require.NoError(t, err)
	defer syncer.Close()

	require.NoError(t, syncer.CreateDuplication(ctx, "testapp_oldmodel", "testapp_newmodel"))

	r, ok := newRow(t, db, 1)
	require.True(t, ok, "existing row should be copied")
	assert.Equal(t, row{"first", 1}, r)

	r, ok = newRow(t, db, 2)
	require.True(t, ok)
	assert.Equal(t, row{"second", 2}, r, "stale row should be overwritten by the copy")

	exec(t, db, `INSERT INTO testapp_oldmodel (id, text, number, group_id) VALUES (3, 'third', 3, NULL)`)
	r, ok = newRow(t, db, 3)
	require.True(t, ok, "insert should be mirrored")
	assert.Equal(t, row{"third", 3}, r)

	exec(t, db, `UPDATE testapp_oldmodel SET text = 'updated', number = 30 WHERE id = 3`)
	r, ok = newRow(t, db, 3)
	require.True(t, ok)
	assert.Equal(t, row{"updated", 30}, r, "update should be mirrored")

	exec(t, db, `DELETE FROM testapp_oldmodel WHERE id = 1`)
	_, ok = newRow(t, db, 1)
	assert.False(t, ok, "delete should be mirrored")

	require.NoError(t, syncer.ReleaseDuplication(ctx, "testapp_oldmodel", "testapp_newmodel"))

	exec(t, db, `INSERT INTO testapp_oldmodel (id, text, number, group_id) VALUES (4, 'fourth', 4, NULL)`)
	_, ok = newRow(t, db, 4)
	assert.False(t, ok, "writes after release should not be mirrored")

	// Releasing twice is harmless.
	require.NoError(t, syncer.ReleaseDuplication(ctx, "testapp_oldmodel", "testapp_newmodel"))
}

func TestPostgresLifecycle(t *testing.T) {
	testLifecycle(t, "DATABASE_URL", "postgres")
}

func TestMySQLLifecycle(t *testing.T) {
	testLifecycle(t, "MYSQL_URL", "mysql")
}

func TestPostgresMissingOldModel(t *testing.T) {
	ctx := context.Background()
	url, db := getTestDB(t, "DATABASE_URL")
	defer db.Close()

	setupTables(t, db, "postgres")
	defer teardownTables(t, db)

	syncer, err := tablesync.Open(ctx, url, tablesync.WithMetricsEnabled(false))
	require.NoError(t, err)
	defer syncer.Close()

	require.NoError(t, syncer.CreateDuplication(ctx, "testapp_gone", "testapp_newmodel"))

	var triggers int
	err = db.QueryRow(`SELECT COUNT(*) FROM information_schema.triggers WHERE event_object_table = 'testapp_oldmodel'`).Scan(&triggers)
	require.NoError(t, err)
	assert.Equal(t, 0, triggers)
}

func TestPostgresSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	url, db := getTestDB(t, "DATABASE_URL")
	defer db.Close()

	setupTables(t, db, "postgres")
	defer teardownTables(t, db)
	exec(t, db, `ALTER TABLE testapp_newmodel ADD COLUMN extra INT`)

	syncer, err := tablesync.Open(ctx, url, tablesync.WithMetricsEnabled(false))
	require.NoError(t, err)
	defer syncer.Close()

	err = syncer.CreateDuplication(ctx, "testapp_oldmodel", "testapp_newmodel")
	require.Error(t, err)

	_, ok := newRow(t, db, 1)
	assert.False(t, ok, "nothing should be copied on mismatch")
}
