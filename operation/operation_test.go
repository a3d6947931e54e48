package operation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/builder"
	"github.com/getpup/pupsourcing-tablesync/editor"
	"github.com/getpup/pupsourcing-tablesync/metrics"
	"github.com/getpup/pupsourcing-tablesync/schema"
	"github.com/getpup/pupsourcing-tablesync/schema/memory"
)

// mockLogger captures log calls for testing
type mockLogger struct {
	mu    sync.Mutex
	calls []logCall
}

type logCall struct {
	level   string
	message string
	args    []interface{}
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	m.record("debug", msg, args)
}

func (m *mockLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	m.record("info", msg, args)
}

func (m *mockLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	m.record("error", msg, args)
}

func (m *mockLogger) record(level, msg string, args []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, logCall{level: level, message: msg, args: args})
}

func (m *mockLogger) find(msg string) (logCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c.message == msg {
			return c, true
		}
	}
	return logCall{}, false
}

// warnLogger adds a warning level to mockLogger.
type warnLogger struct {
	mockLogger
}

func (w *warnLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	w.record("warn", msg, args)
}

var (
	oldSchema = tablesync.TableSchema{
		Table:         "old_table",
		Columns:       []string{"id", "name", "email"},
		UniqueColumns: []string{"id", "email"},
		PrimaryKey:    "id",
	}
	newSchema = tablesync.TableSchema{
		Table:         "new_table",
		Columns:       []string{"id", "name", "email"},
		UniqueColumns: []string{"id", "email"},
		PrimaryKey:    "id",
	}
)

func newResolver(t *testing.T) *memory.Resolver {
	t.Helper()
	r := memory.New()
	require.NoError(t, r.Register("app.Old", oldSchema))
	require.NoError(t, r.Register("app.New", newSchema))
	return r
}

func expectedCreate(t *testing.T, b *builder.Builder) []string {
	t.Helper()

	begin, err := b.Begin()
	require.NoError(t, err)
	lock, err := b.Lock(oldSchema, newSchema)
	require.NoError(t, err)
	copyData, err := b.CopyTableData(oldSchema, newSchema)
	require.NoError(t, err)

	out := append(append([]string{}, begin...), lock...)
	out = append(out, copyData)
	for _, event := range tablesync.Events() {
		s, err := b.CreateTrigger(event, oldSchema, newSchema)
		require.NoError(t, err)
		out = append(out, s)
	}
	commit, err := b.Commit()
	require.NoError(t, err)
	return append(out, commit...)
}

func expectedDrop(t *testing.T, b *builder.Builder) []string {
	t.Helper()

	begin, err := b.Begin()
	require.NoError(t, err)
	out := append([]string{}, begin...)
	for _, event := range tablesync.Events() {
		s, err := b.DropTrigger(event, oldSchema, newSchema)
		require.NoError(t, err)
		out = append(out, s)
	}
	commit, err := b.Commit()
	require.NoError(t, err)
	return append(out, commit...)
}

func TestCreateDuplication_Forward_ExecutesCreateSequence(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	op := NewCreateDuplication("app.Old", "app.New")

	err := op.Forward(ctx, rec, newResolver(t))
	require.NoError(t, err)

	statements := rec.Statements()
	assert.Equal(t, expectedCreate(t, builder.MustNew(builder.Postgres)), statements)
	require.Len(t, statements, 7)
	assert.Equal(t, "BEGIN ISOLATION LEVEL REPEATABLE READ;", statements[0])
	assert.Equal(t, "LOCK TABLE old_table IN EXCLUSIVE MODE;", statements[1])
	assert.Contains(t, statements[2], "INSERT INTO new_table")
	assert.Contains(t, statements[3], "old_table_to_new_table_insert_trigger")
	assert.Contains(t, statements[4], "old_table_to_new_table_update_trigger")
	assert.Contains(t, statements[5], "old_table_to_new_table_delete_trigger")
	assert.Equal(t, "COMMIT;", statements[6])
}

func TestCreateDuplication_Backward_ExecutesDropSequence(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	op := NewCreateDuplication("app.Old", "app.New")

	err := op.Backward(ctx, rec, newResolver(t))
	require.NoError(t, err)

	statements := rec.Statements()
	assert.Equal(t, expectedDrop(t, builder.MustNew(builder.Postgres)), statements)
	require.Len(t, statements, 5)
	for _, s := range statements {
		assert.NotContains(t, s, "LOCK")
		assert.NotContains(t, s, "INSERT")
	}
}

func TestReleaseDuplication_IsTheInverseOfCreate(t *testing.T) {
	ctx := context.Background()
	b := builder.MustNew(builder.SQLite)

	forward := editor.NewRecorder()
	err := NewReleaseDuplication("app.Old", "app.New", WithBuilder(b)).Forward(ctx, forward, newResolver(t))
	require.NoError(t, err)
	assert.Equal(t, expectedDrop(t, b), forward.Statements())

	backward := editor.NewRecorder()
	err = NewReleaseDuplication("app.Old", "app.New", WithBuilder(b)).Backward(ctx, backward, newResolver(t))
	require.NoError(t, err)
	assert.Equal(t, expectedCreate(t, b), backward.Statements())
}

func TestCreateDuplication_MySQLSequence(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	b := builder.MustNew(builder.MySQL)

	err := NewCreateDuplication("app.Old", "app.New", WithBuilder(b)).Forward(ctx, rec, newResolver(t))
	require.NoError(t, err)

	statements := rec.Statements()
	assert.Equal(t, expectedCreate(t, b), statements)
	assert.Contains(t, statements, "LOCK TABLES old_table WRITE, new_table WRITE;")
	assert.Contains(t, statements, "UNLOCK TABLES;")
}

func TestDescribe(t *testing.T) {
	create := NewCreateDuplication("app.Old", "app.New")
	release := NewReleaseDuplication("app.Old", "app.New")

	assert.Equal(t, "Create triggers for transitional model renaming: app.Old -> app.New", create.Describe())
	assert.Equal(t, "Drop triggers for transitional model renaming: app.Old -> app.New", release.Describe())
	assert.True(t, create.Reversible())
	assert.True(t, release.Reversible())
	assert.Equal(t, "app.Old", create.OldModel)
	assert.Equal(t, "app.New", release.NewModel)
}

func TestForward_OldModelMissing_WarnsAndSkips(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	logger := &warnLogger{}
	resolver := memory.New()
	require.NoError(t, resolver.Register("app.New", newSchema))

	err := NewCreateDuplication("app.Old", "app.New", WithLogger(logger)).Forward(ctx, rec, resolver)
	require.NoError(t, err)

	assert.Empty(t, rec.Statements())
	call, ok := logger.find("old model no longer available, assuming it is being removed")
	require.True(t, ok)
	assert.Equal(t, "warn", call.level)
	assert.Contains(t, call.args, "oldModel")
	assert.Contains(t, call.args, "app.Old")
	assert.Contains(t, call.args, "newModel")
	assert.Contains(t, call.args, "app.New")
}

func TestBackward_OldModelMissing_FallsBackToInfo(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	logger := &mockLogger{}

	err := NewReleaseDuplication("app.Old", "app.New", WithLogger(logger)).Backward(ctx, rec, memory.New())
	require.NoError(t, err)

	assert.Empty(t, rec.Statements())
	call, ok := logger.find("old model no longer available, assuming it is being removed")
	require.True(t, ok)
	assert.Equal(t, "info", call.level)
}

func TestForward_OldModelMissing_ResolvesOldOnly(t *testing.T) {
	ctx := context.Background()
	resolver := schema.NewMockResolver(nil)

	err := NewCreateDuplication("app.Old", "app.New").Forward(ctx, editor.NewRecorder(), resolver)
	require.NoError(t, err)

	assert.Equal(t, []string{"app.Old"}, resolver.Calls())
}

func TestForward_NewModelMissing_ReturnsError(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	resolver := memory.New()
	require.NoError(t, resolver.Register("app.Old", oldSchema))

	err := NewCreateDuplication("app.Old", "app.New").Forward(ctx, rec, resolver)

	assert.ErrorIs(t, err, tablesync.ErrModelNotFound)
	assert.Contains(t, err.Error(), "resolve new model app.New")
	assert.Empty(t, rec.Statements())
}

func TestForward_ResolverError_Propagates(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	boom := errors.New("connection refused")
	resolver := &schema.MockResolver{
		ResolveFunc: func(ctx context.Context, name string) (tablesync.TableSchema, error) {
			return tablesync.TableSchema{}, boom
		},
	}

	err := NewCreateDuplication("app.Old", "app.New").Forward(ctx, rec, resolver)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.Statements())
}

func TestForward_SchemaMismatch_IssuesNoSQL(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	resolver := memory.New()
	require.NoError(t, resolver.Register("app.Old", oldSchema))
	require.NoError(t, resolver.Register("app.New", tablesync.TableSchema{
		Table:         "new_table",
		Columns:       []string{"id", "name"},
		UniqueColumns: []string{"id"},
		PrimaryKey:    "id",
	}))

	err := NewCreateDuplication("app.Old", "app.New").Forward(ctx, rec, resolver)

	assert.ErrorIs(t, err, tablesync.ErrSchemaMismatch)
	assert.Empty(t, rec.Statements())
}

func TestForward_InvalidIdentifier_IssuesNoSQL(t *testing.T) {
	ctx := context.Background()
	rec := editor.NewRecorder()
	resolver := &schema.MockResolver{
		Schemas: map[string]tablesync.TableSchema{
			"app.Old": {Table: "old; DROP TABLE x", Columns: []string{"id"}, PrimaryKey: "id"},
			"app.New": newSchema,
		},
	}

	err := NewReleaseDuplication("app.Old", "app.New").Forward(ctx, rec, resolver)

	assert.ErrorIs(t, err, tablesync.ErrInvalidIdentifier)
	assert.Empty(t, rec.Statements())
}

func TestForward_ExecutionFailure_RollsBack(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("duplicate key")
	rec := editor.NewRecorder()
	rec.FailOn = func(statement string) error {
		if strings.HasPrefix(statement, "INSERT INTO") {
			return boom
		}
		return nil
	}
	logger := &mockLogger{}

	err := NewCreateDuplication("app.Old", "app.New", WithLogger(logger)).Forward(ctx, rec, newResolver(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execute copy statement")

	statements := rec.Statements()
	require.Len(t, statements, 4)
	assert.Equal(t, "ROLLBACK;", statements[3])

	_, ok := logger.find("operation failed")
	assert.True(t, ok)
}

func TestForward_RollbackFailure_ReturnsOriginalError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("trigger exists")
	rec := editor.NewRecorder()
	rec.FailOn = func(statement string) error {
		switch {
		case strings.HasPrefix(statement, "DROP TRIGGER"):
			return boom
		case statement == "ROLLBACK;":
			return errors.New("no transaction")
		}
		return nil
	}
	logger := &mockLogger{}

	err := NewReleaseDuplication("app.Old", "app.New", WithLogger(logger)).Forward(ctx, rec, newResolver(t))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execute drop_trigger statement")

	call, ok := logger.find("rollback failed")
	require.True(t, ok)
	assert.Equal(t, "error", call.level)
}

func TestForward_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	collector := metrics.NewCollector("op_metrics_old", "op_metrics_new")
	op := NewCreateDuplication("app.Old", "app.New", WithMetrics(collector))

	require.NoError(t, op.Forward(ctx, editor.NewRecorder(), newResolver(t)))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues("op_metrics_old", "op_metrics_new", NameCreateDuplication, "forward")))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.StatementsExecutedTotal.WithLabelValues("op_metrics_old", "op_metrics_new", KindCreateTrigger)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StatementsExecutedTotal.WithLabelValues("op_metrics_old", "op_metrics_new", KindCopy)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Duplications.WithLabelValues("op_metrics_old", "op_metrics_new")))

	require.NoError(t, op.Backward(ctx, editor.NewRecorder(), newResolver(t)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Duplications.WithLabelValues("op_metrics_old", "op_metrics_new")))
}

func TestForward_FailureAndSkipMetrics(t *testing.T) {
	ctx := context.Background()
	collector := metrics.NewCollector("op_fail_old", "op_fail_new")

	rec := editor.NewRecorder()
	rec.FailOn = func(statement string) error {
		if strings.HasPrefix(statement, "LOCK") {
			return errors.New("lock timeout")
		}
		return nil
	}
	err := NewCreateDuplication("app.Old", "app.New", WithMetrics(collector)).Forward(ctx, rec, newResolver(t))
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OperationFailuresTotal.WithLabelValues("op_fail_old", "op_fail_new", NameCreateDuplication, "forward")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StatementErrorsTotal.WithLabelValues("op_fail_old", "op_fail_new", KindLock)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StatementsExecutedTotal.WithLabelValues("op_fail_old", "op_fail_new", KindRollback)))

	err = NewReleaseDuplication("app.Old", "app.New", WithMetrics(collector)).Forward(ctx, editor.NewRecorder(), memory.New())
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OperationsSkippedTotal.WithLabelValues("op_fail_old", "op_fail_new", NameReleaseDuplication, "forward")))
}
