package logging

// Standardized field names for structured logging.
// These constants ensure consistency across the application's log output,
// making logs easier to parse, filter, and analyze.
const (
	FieldUserID       = "user_id"
	FieldAmount       = "amount"
	FieldCategory     = "category"
	FieldKind         = "kind"
	FieldPath         = "path"
	FieldReason       = "reason"
	FieldOperation    = "operation"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldCount        = "count"
	FieldSubscription = "subscription"
	FieldPeriod       = "period"
	FieldTargetDate   = "target_date"
)
