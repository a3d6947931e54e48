package tablesync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(table string) TableSchema {
	return TableSchema{
		Table:         table,
		Columns:       []string{"id", "text", "number", "group_id"},
		UniqueColumns: []string{"id"},
		PrimaryKey:    "id",
	}
}

func TestTableSchema_SameColumns(t *testing.T) {
	t.Run("identical columns", func(t *testing.T) {
		assert.True(t, testSchema("a").SameColumns(testSchema("b")))
	})

	t.Run("order is ignored", func(t *testing.T) {
		other := testSchema("b")
		other.Columns = []string{"group_id", "number", "text", "id"}

		assert.True(t, testSchema("a").SameColumns(other))
	})

	t.Run("missing column", func(t *testing.T) {
		other := testSchema("b")
		other.Columns = []string{"id", "text", "number"}

		assert.False(t, testSchema("a").SameColumns(other))
	})

	t.Run("renamed column", func(t *testing.T) {
		other := testSchema("b")
		other.Columns = []string{"id", "text", "number", "group"}

		assert.False(t, testSchema("a").SameColumns(other))
	})

	t.Run("does not reorder the receiver", func(t *testing.T) {
		s := testSchema("a")
		other := testSchema("b")
		other.Columns = []string{"text", "id", "number", "group_id"}

		s.SameColumns(other)

		assert.Equal(t, []string{"id", "text", "number", "group_id"}, s.Columns)
		assert.Equal(t, []string{"text", "id", "number", "group_id"}, other.Columns)
	})
}

func TestTableSchema_NonPrimaryColumns(t *testing.T) {
	assert.Equal(t, []string{"text", "number", "group_id"}, testSchema("a").NonPrimaryColumns())

	pkOnly := TableSchema{Table: "t", Columns: []string{"id"}, PrimaryKey: "id"}
	assert.Empty(t, pkOnly.NonPrimaryColumns())
}

func TestTableSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *TableSchema)
		wantErr error
	}{
		{name: "valid", mutate: func(s *TableSchema) {}},
		{name: "empty table", mutate: func(s *TableSchema) { s.Table = "" }, wantErr: ErrInvalidIdentifier},
		{name: "table with semicolon", mutate: func(s *TableSchema) { s.Table = "t; DROP TABLE x" }, wantErr: ErrInvalidIdentifier},
		{name: "column with quote", mutate: func(s *TableSchema) { s.Columns[1] = `te"xt` }, wantErr: ErrInvalidIdentifier},
		{name: "no columns", mutate: func(s *TableSchema) { s.Columns = nil }, wantErr: ErrInvalidSchema},
		{name: "primary key not a column", mutate: func(s *TableSchema) { s.PrimaryKey = "uuid" }, wantErr: ErrInvalidSchema},
		{name: "empty primary key", mutate: func(s *TableSchema) { s.PrimaryKey = "" }, wantErr: ErrInvalidIdentifier},
		{name: "leading underscore allowed", mutate: func(s *TableSchema) { s.Table = "_hidden" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema("testapp_oldmodel")
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParseTriggerEvent(t *testing.T) {
	for _, name := range []string{"insert", "INSERT", " Update ", "delete"} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTriggerEvent(name)
			assert.NoError(t, err)
		})
	}

	e, err := ParseTriggerEvent("Update")
	require.NoError(t, err)
	assert.Equal(t, EventUpdate, e)

	_, err = ParseTriggerEvent("truncate")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEvents_Order(t *testing.T) {
	assert.Equal(t, []TriggerEvent{EventInsert, EventUpdate, EventDelete}, Events())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("FORWARD")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)

	d, err = ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
