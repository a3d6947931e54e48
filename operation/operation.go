// Package operation implements the reversible duplication steps a migration
// host runs around a table rename: CreateDuplication installs the sync
// triggers and copies existing rows, ReleaseDuplication drops the triggers.
package operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/getpup/pupsourcing-tablesync"
	"github.com/getpup/pupsourcing-tablesync/builder"
	"github.com/getpup/pupsourcing-tablesync/metrics"
	"github.com/getpup/pupsourcing/es"
)

// Statement kinds used in error messages, logs and metric labels.
const (
	KindBegin         = "begin"
	KindLock          = "lock"
	KindCopy          = "copy"
	KindCreateTrigger = "create_trigger"
	KindDropTrigger   = "drop_trigger"
	KindCommit        = "commit"
	KindRollback      = "rollback"
)

// Operation names used in logs, spans and metric labels.
const (
	NameCreateDuplication  = "create_duplication"
	NameReleaseDuplication = "release_duplication"
)

const tracerName = "github.com/getpup/pupsourcing-tablesync/operation"

var defaultBuilder = builder.MustNew(builder.Postgres)

// Option configures an operation.
type Option func(*runner)

// WithBuilder sets the statement builder. Defaults to the Postgres dialect.
func WithBuilder(b *builder.Builder) Option {
	return func(r *runner) {
		r.builder = b
	}
}

// WithLogger sets the logger (optional).
func WithLogger(logger es.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector (optional).
func WithMetrics(collector *metrics.Collector) Option {
	return func(r *runner) {
		r.collector = collector
	}
}

type statement struct {
	kind string
	sql  string
}

// runner holds what both operations share: the model pair and the
// machinery that renders and executes a statement sequence.
type runner struct {
	// OldModel names the model whose table is being replaced.
	OldModel string

	// NewModel names the model whose table replaces it.
	NewModel string

	builder   *builder.Builder
	logger    es.Logger
	collector *metrics.Collector
	tracer    trace.Tracer
}

func newRunner(oldModel, newModel string, opts []Option) runner {
	r := runner{
		OldModel: oldModel,
		NewModel: newModel,
		builder:  defaultBuilder,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// CreateDuplication copies the rows of the old model's table into the new
// model's table and installs triggers mirroring every later write.
// Backward drops the triggers again.
type CreateDuplication struct {
	runner
}

// Compile-time check that CreateDuplication implements Operation.
var _ tablesync.Operation = (*CreateDuplication)(nil)

// NewCreateDuplication creates the operation for a model pair.
func NewCreateDuplication(oldModel, newModel string, opts ...Option) *CreateDuplication {
	return &CreateDuplication{runner: newRunner(oldModel, newModel, opts)}
}

// Forward copies data and creates the triggers.
func (o *CreateDuplication) Forward(ctx context.Context, editor tablesync.SchemaEditor, resolver tablesync.SchemaResolver) error {
	return o.run(ctx, NameCreateDuplication, tablesync.Forward, editor, resolver, o.createPlan)
}

// Backward drops the triggers.
func (o *CreateDuplication) Backward(ctx context.Context, editor tablesync.SchemaEditor, resolver tablesync.SchemaResolver) error {
	return o.run(ctx, NameCreateDuplication, tablesync.Backward, editor, resolver, o.dropPlan)
}

// Describe returns a human readable summary.
func (o *CreateDuplication) Describe() string {
	return fmt.Sprintf("Create triggers for transitional model renaming: %s -> %s", o.OldModel, o.NewModel)
}

// Reversible always returns true.
func (o *CreateDuplication) Reversible() bool {
	return true
}

// ReleaseDuplication drops the triggers installed by CreateDuplication.
// Backward reinstalls them, copying rows written in the meantime.
type ReleaseDuplication struct {
	runner
}

// Compile-time check that ReleaseDuplication implements Operation.
var _ tablesync.Operation = (*ReleaseDuplication)(nil)

// NewReleaseDuplication creates the operation for a model pair.
func NewReleaseDuplication(oldModel, newModel string, opts ...Option) *ReleaseDuplication {
	return &ReleaseDuplication{runner: newRunner(oldModel, newModel, opts)}
}

// Forward drops the triggers.
func (o *ReleaseDuplication) Forward(ctx context.Context, editor tablesync.SchemaEditor, resolver tablesync.SchemaResolver) error {
	return o.run(ctx, NameReleaseDuplication, tablesync.Forward, editor, resolver, o.dropPlan)
}

// Backward copies data and recreates the triggers.
func (o *ReleaseDuplication) Backward(ctx context.Context, editor tablesync.SchemaEditor, resolver tablesync.SchemaResolver) error {
	return o.run(ctx, NameReleaseDuplication, tablesync.Backward, editor, resolver, o.createPlan)
}

// Describe returns a human readable summary.
func (o *ReleaseDuplication) Describe() string {
	return fmt.Sprintf("Drop triggers for transitional model renaming: %s -> %s", o.OldModel, o.NewModel)
}

// Reversible always returns true.
func (o *ReleaseDuplication) Reversible() bool {
	return true
}

type planFunc func(old, new tablesync.TableSchema) ([]statement, bool, error)

// createPlan renders the full create sequence. The bool result reports
// whether the triggers are installed once the sequence commits.
func (r *runner) createPlan(old, new tablesync.TableSchema) ([]statement, bool, error) {
	var plan []statement

	begin, err := r.builder.Begin()
	if err != nil {
		return nil, false, err
	}
	plan = appendAll(plan, KindBegin, begin)

	lock, err := r.builder.Lock(old, new)
	if err != nil {
		return nil, false, err
	}
	plan = appendAll(plan, KindLock, lock)

	copyData, err := r.builder.CopyTableData(old, new)
	if err != nil {
		return nil, false, err
	}
	plan = append(plan, statement{kind: KindCopy, sql: copyData})

	for _, event := range tablesync.Events() {
		create, err := r.builder.CreateTrigger(event, old, new)
		if err != nil {
			return nil, false, err
		}
		plan = append(plan, statement{kind: KindCreateTrigger, sql: create})
	}

	commit, err := r.builder.Commit()
	if err != nil {
		return nil, false, err
	}
	return appendAll(plan, KindCommit, commit), true, nil
}

func (r *runner) dropPlan(old, new tablesync.TableSchema) ([]statement, bool, error) {
	var plan []statement

	begin, err := r.builder.Begin()
	if err != nil {
		return nil, false, err
	}
	plan = appendAll(plan, KindBegin, begin)

	for _, event := range tablesync.Events() {
		drop, err := r.builder.DropTrigger(event, old, new)
		if err != nil {
			return nil, false, err
		}
		plan = append(plan, statement{kind: KindDropTrigger, sql: drop})
	}

	commit, err := r.builder.Commit()
	if err != nil {
		return nil, false, err
	}
	return appendAll(plan, KindCommit, commit), false, nil
}

func appendAll(plan []statement, kind string, sqls []string) []statement {
	for _, s := range sqls {
		plan = append(plan, statement{kind: kind, sql: s})
	}
	return plan
}

func (r *runner) run(ctx context.Context, name string, direction tablesync.Direction, editor tablesync.SchemaEditor, resolver tablesync.SchemaResolver, plan planFunc) (err error) {
	runID := uuid.NewString()

	ctx, span := r.tracer.Start(ctx, "tablesync.operation", trace.WithAttributes(
		attribute.String("tablesync.operation", name),
		attribute.String("tablesync.direction", string(direction)),
		attribute.String("tablesync.old_model", r.OldModel),
		attribute.String("tablesync.new_model", r.NewModel),
		attribute.String("tablesync.run_id", runID),
	))
	defer span.End()

	start := time.Now()
	if r.collector != nil {
		r.collector.IncOperations(name, string(direction))
	}

	defer func() {
		if r.collector != nil {
			r.collector.ObserveOperationDuration(name, string(direction), time.Since(start).Seconds())
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if r.collector != nil {
				r.collector.IncOperationFailures(name, string(direction))
			}
			if r.logger != nil {
				r.logger.Error(ctx, "operation failed",
					"operation", name, "direction", direction, "run_id", runID, "error", err)
			}
		}
	}()

	old, err := resolver.Resolve(ctx, r.OldModel)
	if errors.Is(err, tablesync.ErrModelNotFound) {
		r.warn(ctx, "old model no longer available, assuming it is being removed",
			"oldModel", r.OldModel, "newModel", r.NewModel, "run_id", runID)
		span.AddEvent("old model not found")
		if r.collector != nil {
			r.collector.IncOperationsSkipped(name, string(direction))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve old model %s: %w", r.OldModel, err)
	}

	new, err := resolver.Resolve(ctx, r.NewModel)
	if err != nil {
		return fmt.Errorf("resolve new model %s: %w", r.NewModel, err)
	}

	statements, active, err := plan(old, new)
	if err != nil {
		return err
	}
	rollback, err := r.builder.Rollback()
	if err != nil {
		return err
	}

	if r.logger != nil {
		r.logger.Info(ctx, "applying operation",
			"operation", name, "direction", direction, "run_id", runID,
			"old_table", old.Table, "new_table", new.Table, "statements", len(statements))
	}

	for _, s := range statements {
		if execErr := editor.Execute(ctx, s.sql); execErr != nil {
			if r.collector != nil {
				r.collector.IncStatementErrors(s.kind)
			}
			r.rollback(ctx, editor, rollback, runID)
			return fmt.Errorf("execute %s statement: %w", s.kind, execErr)
		}
		if r.collector != nil {
			r.collector.IncStatementsExecuted(s.kind)
		}
	}

	if r.collector != nil {
		r.collector.SetDuplicationActive(active)
	}
	if r.logger != nil {
		r.logger.Info(ctx, "operation applied",
			"operation", name, "direction", direction, "run_id", runID,
			"duration", time.Since(start))
	}
	return nil
}

// rollback aborts the open transaction. Failures are logged only; the
// statement error that triggered the rollback is what callers see.
func (r *runner) rollback(ctx context.Context, editor tablesync.SchemaEditor, statements []string, runID string) {
	for _, s := range statements {
		if err := editor.Execute(ctx, s); err != nil {
			if r.collector != nil {
				r.collector.IncStatementErrors(KindRollback)
			}
			if r.logger != nil {
				r.logger.Error(ctx, "rollback failed", "run_id", runID, "sql_statement", s, "error", err)
			}
			continue
		}
		if r.collector != nil {
			r.collector.IncStatementsExecuted(KindRollback)
		}
	}
}

func (r *runner) warn(ctx context.Context, msg string, args ...interface{}) {
	if r.logger == nil {
		return
	}
	if w, ok := r.logger.(tablesync.WarnLogger); ok {
		w.Warn(ctx, msg, args...)
		return
	}
	r.logger.Info(ctx, msg, args...)
}
