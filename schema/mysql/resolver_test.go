package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	r := New(nil)

	assert.NotNil(t, r)
	assert.Nil(t, r.db)
}

// The queries are exercised against a real database in integration_test.
func TestQueries(t *testing.T) {
	t.Run("scoped to the current database", func(t *testing.T) {
		assert.Contains(t, columnsQuery, "TABLE_SCHEMA = DATABASE()")
		assert.Contains(t, constraintsQuery, "tc.TABLE_SCHEMA = DATABASE()")
	})

	t.Run("columns are read in table order", func(t *testing.T) {
		assert.Contains(t, columnsQuery, "ORDER BY ORDINAL_POSITION")
	})

	t.Run("only primary key and unique constraints are read", func(t *testing.T) {
		assert.Contains(t, constraintsQuery, "'PRIMARY KEY', 'UNIQUE'")
	})
}
