package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldRecipeID is the persisted recipe ID
	FieldRecipeID = "recipe_id"

	// FieldDish is the requested dish name
	FieldDish = "dish"

	// FieldUserEmail is the requester identity
	FieldUserEmail = "user_email"
)

// Standard metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldAttempt is the upstream call attempt number
	FieldAttempt = "attempt"

	// FieldStatus is the operation or HTTP status
	FieldStatus = "status"

	// FieldSize is the data size in bytes
	FieldSize = "size"
)
