// Package editor provides SchemaEditor implementations: Conn executes against
// a pinned database connection, Recorder only records what would run.
package editor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing/es"
)

// Conn executes statements on a single pinned connection so that explicit
// BEGIN and COMMIT statements delimit one transaction.
type Conn struct {
	mu     sync.Mutex
	conn   *sql.Conn
	logger es.Logger
}

// Compile-time check that Conn implements SchemaEditor.
var _ tablesync.SchemaEditor = (*Conn)(nil)

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets a logger that receives every executed statement at debug level.
func WithLogger(logger es.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// New reserves a connection from db for the lifetime of the editor.
// Close must be called to return the connection to the pool.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve connection: %w", err)
	}

	c := &Conn{conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute runs a statement on the pinned connection.
func (c *Conn) Execute(ctx context.Context, statement string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("editor is closed")
	}

	if c.logger != nil {
		c.logger.Debug(ctx, "executing statement", "sql_statement", statement)
	}

	if _, err := c.conn.ExecContext(ctx, statement); err != nil {
		return err
	}
	return nil
}

// Close returns the pinned connection to the pool.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
