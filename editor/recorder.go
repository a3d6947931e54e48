package editor

import (
	"context"
	"strings"
	"sync"

	"github.com/getpup/pupsourcing-tablesync"
)

// Recorder is a SchemaEditor that records statements instead of executing them.
// It backs dry runs and migration file generation, and doubles as a test fake.
type Recorder struct {
	mu         sync.Mutex
	statements []string

	// FailOn is called before a statement is recorded if set. A non-nil
	// return is returned from Execute and the statement is still recorded.
	FailOn func(statement string) error
}

// Compile-time check that Recorder implements SchemaEditor.
var _ tablesync.SchemaEditor = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Execute records the statement.
func (r *Recorder) Execute(ctx context.Context, statement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = append(r.statements, statement)
	if r.FailOn != nil {
		return r.FailOn(statement)
	}
	return nil
}

// Statements returns a copy of the recorded statements in execution order.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.statements))
	copy(out, r.statements)
	return out
}

// Script joins the recorded statements into a single SQL script.
func (r *Recorder) Script() string {
	statements := r.Statements()

	var sb strings.Builder
	for i, s := range statements {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimRight(s, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Reset discards every recorded statement.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = nil
}
