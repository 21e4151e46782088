package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBudgetID    = "budget_id"
	FieldMemberID    = "member_id"
	FieldExpenseID   = "expense_id"
	FieldExpenseKind = "expense_kind"
	FieldAmountCents = "amount_cents"
	FieldCurrency    = "currency"
	FieldRateDate    = "rate_date"
	FieldBaseCode    = "base_currency"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentBudget     = "budget"
	ComponentExpense    = "expense"
	ComponentSettlement = "settlement"
	ComponentRates      = "rates"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)
