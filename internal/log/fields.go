package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldDuration     = "duration_ms"
	FieldUserID       = "user_id"
	FieldObligationID = "obligation_id"
	FieldInstanceID   = "instance_id"
	FieldBudgetID     = "budget_id"
	FieldCategoryID   = "category_id"
	FieldEventType    = "event_type"
	FieldDueDate      = "due_date"
	FieldLifecycle    = "lifecycle"
	FieldMessageID    = "message_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpReconcile = "reconcile"
	OpNotify    = "notify"
	OpBudget    = "budget"
	OpConsume   = "consume"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithInstance adds the fields identifying a payment instance.
func (f LogFields) WithInstance(obligationID, instanceID int64, dueDate string) LogFields {
	f[FieldObligationID] = obligationID
	f[FieldInstanceID] = instanceID
	f[FieldDueDate] = dueDate
	return f
}

// WithDuration adds elapsed milliseconds
func (f LogFields) WithDuration(ms int64) LogFields {
	f[FieldDuration] = ms
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
