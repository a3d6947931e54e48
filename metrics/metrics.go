// Package metrics exposes Prometheus metrics for table duplication runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OperationsTotal tracks the total number of operation runs started.
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupsourcing_tablesync_operations_total",
		Help: "Total operation runs started",
	},
	[]string{"old_model", "new_model", "operation", "direction"},
)

// OperationFailuresTotal tracks the total number of operation runs that returned an error.
var OperationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupsourcing_tablesync_operation_failures_total",
		Help: "Total operation runs that failed",
	},
	[]string{"old_model", "new_model", "operation", "direction"},
)

// OperationsSkippedTotal tracks runs skipped because the old model no longer resolves.
var OperationsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupsourcing_tablesync_operations_skipped_total",
		Help: "Total operation runs skipped because the old model is gone",
	},
	[]string{"old_model", "new_model", "operation", "direction"},
)

// OperationDuration tracks the wall time of an operation run, including the data copy.
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pupsourcing_tablesync_operation_duration_seconds",
		Help:    "Operation run duration",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300, 900},
	},
	[]string{"old_model", "new_model", "operation", "direction"},
)

// StatementsExecutedTotal tracks statements executed, by kind.
var StatementsExecutedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupsourcing_tablesync_statements_executed_total",
		Help: "Total statements executed",
	},
	[]string{"old_model", "new_model", "kind"},
)

// StatementErrorsTotal tracks statements that failed, by kind.
var StatementErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupsourcing_tablesync_statement_errors_total",
		Help: "Total statements that failed",
	},
	[]string{"old_model", "new_model", "kind"},
)

// Duplications tracks whether triggers are installed for a table pair
// (1 after a successful create, 0 after a successful drop).
var Duplications = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pupsourcing_tablesync_duplication_active",
		Help: "Whether sync triggers are installed (1) or dropped (0)",
	},
	[]string{"old_model", "new_model"},
)
