package tablesync

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableSchema describes the columns of a single table as seen by the
// statement builder. It is immutable for the duration of statement generation.
type TableSchema struct {
	// Table is the database table name.
	Table string

	// Columns are the column names in table order.
	Columns []string

	// UniqueColumns are the columns carrying a single-column unique constraint,
	// in table order. The primary key column is always unique.
	UniqueColumns []string

	// PrimaryKey is the name of the primary key column.
	PrimaryKey string
}

// SameColumns reports whether both schemas carry the same set of columns,
// ignoring order.
func (s TableSchema) SameColumns(other TableSchema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}

	a := sortedCopy(s.Columns)
	b := sortedCopy(other.Columns)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NonPrimaryColumns returns the columns other than the primary key, in table order.
func (s TableSchema) NonPrimaryColumns() []string {
	cols := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c != s.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate ensures every name in the schema is safe to embed in SQL and that
// the primary key is one of the columns.
func (s TableSchema) Validate() error {
	if err := ValidateIdentifier(s.Table, "table"); err != nil {
		return err
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: table %s has no columns", ErrInvalidSchema, s.Table)
	}
	for _, c := range s.Columns {
		if err := ValidateIdentifier(c, "column"); err != nil {
			return err
		}
	}
	for _, c := range s.UniqueColumns {
		if err := ValidateIdentifier(c, "unique column"); err != nil {
			return err
		}
	}
	if err := ValidateIdentifier(s.PrimaryKey, "primary key"); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if c == s.PrimaryKey {
			return nil
		}
	}
	return fmt.Errorf("%w: primary key %s is not a column of %s", ErrInvalidSchema, s.PrimaryKey, s.Table)
}

// ValidateIdentifier ensures an identifier contains only characters that are
// safe to use unquoted in SQL.
func ValidateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidIdentifier, fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%w: %s must start with a letter or underscore and contain only letters, numbers, and underscores (got: %s)", ErrInvalidIdentifier, fieldName, name)
	}
	return nil
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// TriggerEvent is the row event a synchronization trigger fires on.
type TriggerEvent string

const (
	// EventInsert mirrors inserted rows into the new table.
	EventInsert TriggerEvent = "insert"

	// EventUpdate mirrors updated rows into the new table, matched by primary key.
	EventUpdate TriggerEvent = "update"

	// EventDelete removes deleted rows from the new table, matched by primary key.
	EventDelete TriggerEvent = "delete"
)

// Events returns every trigger event in creation order.
func Events() []TriggerEvent {
	return []TriggerEvent{EventInsert, EventUpdate, EventDelete}
}

// ParseTriggerEvent parses an event name case-insensitively.
func ParseTriggerEvent(name string) (TriggerEvent, error) {
	switch e := TriggerEvent(strings.ToLower(strings.TrimSpace(name))); e {
	case EventInsert, EventUpdate, EventDelete:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

// Direction selects which transition of an operation runs.
type Direction string

const (
	// Forward applies the operation.
	Forward Direction = "forward"

	// Backward reverts the operation.
	Backward Direction = "backward"
)

// ParseDirection parses a direction name case-insensitively.
func ParseDirection(name string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(name))); d {
	case Forward, Backward:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q", name)
	}
}
