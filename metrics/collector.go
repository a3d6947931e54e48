package metrics

// Collector wraps metrics and provides helper methods with the model labels pre-filled.
type Collector struct {
	oldModel string
	newModel string
}

// NewCollector creates a new Collector for a table pair.
func NewCollector(oldModel, newModel string) *Collector {
	return &Collector{oldModel: oldModel, newModel: newModel}
}

// IncOperations increments the operation runs counter.
func (c *Collector) IncOperations(operation, direction string) {
	OperationsTotal.WithLabelValues(c.oldModel, c.newModel, operation, direction).Inc()
}

// IncOperationFailures increments the failed runs counter.
func (c *Collector) IncOperationFailures(operation, direction string) {
	OperationFailuresTotal.WithLabelValues(c.oldModel, c.newModel, operation, direction).Inc()
}

// IncOperationsSkipped increments the skipped runs counter.
func (c *Collector) IncOperationsSkipped(operation, direction string) {
	OperationsSkippedTotal.WithLabelValues(c.oldModel, c.newModel, operation, direction).Inc()
}

// ObserveOperationDuration records an operation run duration observation.
func (c *Collector) ObserveOperationDuration(operation, direction string, seconds float64) {
	OperationDuration.WithLabelValues(c.oldModel, c.newModel, operation, direction).Observe(seconds)
}

// IncStatementsExecuted increments the executed statements counter for a statement kind.
func (c *Collector) IncStatementsExecuted(kind string) {
	StatementsExecutedTotal.WithLabelValues(c.oldModel, c.newModel, kind).Inc()
}

// IncStatementErrors increments the failed statements counter for a statement kind.
func (c *Collector) IncStatementErrors(kind string) {
	StatementErrorsTotal.WithLabelValues(c.oldModel, c.newModel, kind).Inc()
}

// SetDuplicationActive records whether sync triggers are installed.
func (c *Collector) SetDuplicationActive(active bool) {
	v := 0.0
	if active {
		v = 1
	}
	Duplications.WithLabelValues(c.oldModel, c.newModel).Set(v)
}
