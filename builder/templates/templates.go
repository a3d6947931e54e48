// Package templates holds the SQL text rendered by the statement builder,
// one set per database dialect.
//
// Templates are executed with the merged old/new context produced by the
// builder plus an "event" key. The helper functions join, each and without
// are provided by the builder.
//
// Transaction templates (Begin, Lock, Commit, Rollback) render one statement
// per line; blank lines are dropped.
package templates

// Set is the full template set for one dialect.
type Set struct {
	CreateInsert string
	CreateUpdate string
	CreateDelete string
	Drop         string
	Copy         string
	Begin        string
	Lock         string
	Commit       string
	Rollback     string
}

var sets = map[string]Set{
	"postgres": Postgres,
	"mysql":    MySQL,
	"sqlite":   SQLite,
}

// For returns the template set registered for a dialect name.
func For(dialect string) (Set, bool) {
	s, ok := sets[dialect]
	return s, ok
}
