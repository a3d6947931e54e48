package schema

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/pupsourcing-tablesync"
)

// MockResolver is a configurable mock implementation of SchemaResolver for
// use in tests. It tracks calls and lets tests inject schemas and errors.
type MockResolver struct {
	mu sync.RWMutex

	// ResolveFunc is called by Resolve if set.
	ResolveFunc func(ctx context.Context, name string) (tablesync.TableSchema, error)

	// Schemas is consulted when ResolveFunc is nil.
	Schemas map[string]tablesync.TableSchema

	// ResolveCalls records the names passed to Resolve, in order.
	ResolveCalls []string
}

// Compile-time check that MockResolver implements SchemaResolver.
var _ tablesync.SchemaResolver = (*MockResolver)(nil)

// NewMockResolver creates a MockResolver backed by the given schemas.
func NewMockResolver(schemas map[string]tablesync.TableSchema) *MockResolver {
	return &MockResolver{Schemas: schemas}
}

// Resolve records the call and returns the configured result.
func (m *MockResolver) Resolve(ctx context.Context, name string) (tablesync.TableSchema, error) {
	m.mu.Lock()
	m.ResolveCalls = append(m.ResolveCalls, name)
	fn := m.ResolveFunc
	s, ok := m.Schemas[name]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, name)
	}
	if !ok {
		return tablesync.TableSchema{}, fmt.Errorf("%w: %s", tablesync.ErrModelNotFound, name)
	}
	return s, nil
}

// Calls returns a copy of the recorded Resolve calls.
func (m *MockResolver) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.ResolveCalls))
	copy(out, m.ResolveCalls)
	return out
}
