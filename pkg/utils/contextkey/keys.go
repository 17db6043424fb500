package contextkey

// Keys stored in request contexts. The logger reads the same string values, so
// these stay plain strings rather than a private type.
const (
	TraceID   = "trace_id"
	RequestID = "request_id"
	UserID    = "user_id"
	ContestID = "contest_id"
)
