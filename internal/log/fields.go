package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Attendance fields
	FieldFile       = "file"
	FieldFileHash   = "file_hash"
	FieldEmployeeID = "employee_id"
	FieldPunchDate  = "punch_date"
	FieldBatchSize  = "batch_size"

	// Path fields
	FieldPath     = "path"
	FieldWatchDir = "watch_dir"
)
