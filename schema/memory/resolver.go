package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/pupsourcing-tablesync"
)

// Resolver is an in-memory registry of table schemas keyed by model name.
// It is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	schemas map[string]tablesync.TableSchema
}

// Compile-time check that Resolver implements SchemaResolver.
var _ tablesync.SchemaResolver = (*Resolver)(nil)

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{
		schemas: make(map[string]tablesync.TableSchema),
	}
}

// Register stores the schema for a model name, replacing any previous entry.
// The schema is validated before it is stored.
func (r *Resolver) Register(name string, schema tablesync.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas[name] = clone(schema)
	return nil
}

// Remove deletes the schema registered for a model name.
func (r *Resolver) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.schemas, name)
}

// Resolve returns the schema registered for name.
// Returns ErrModelNotFound if nothing is registered under name.
func (r *Resolver) Resolve(ctx context.Context, name string) (tablesync.TableSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s", tablesync.ErrModelNotFound, name)
	}
	return clone(s), nil
}

func clone(s tablesync.TableSchema) tablesync.TableSchema {
	s.Columns = append([]string(nil), s.Columns...)
	s.UniqueColumns = append([]string(nil), s.UniqueColumns...)
	return s
}
