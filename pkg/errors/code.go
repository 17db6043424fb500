package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Authentication errors
// 12000-12999: Problem errors
// 14000-14999: Contest errors
// 17000-17999: Session container errors
// 18000-18999: Platform API errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Authentication Errors (11000-11999) ==========

	TokenExpired ErrorCode = 11003
	TokenInvalid ErrorCode = 11004

	// ========== Problem Errors (12000-12999) ==========

	ProblemNotFound       ErrorCode = 12000
	ProblemConfigInvalid  ErrorCode = 12006
	SubmitMethodMissing   ErrorCode = 12007
	StatementMetaInvalid  ErrorCode = 12008
	ProblemNotResolvable  ErrorCode = 12009
	DescriptionRequired   ErrorCode = 12010
	ProblemDataPackFailed ErrorCode = 12011

	// ========== Contest Errors (14000-14999) ==========

	ContestNotFound     ErrorCode = 14000
	RankingNotAvailable ErrorCode = 14200

	// ========== Session Container Errors (17000-17999) ==========

	ContainerRuntimeFailed ErrorCode = 17000
	ContainerNotRunning    ErrorCode = 17001
	ContainerNameInvalid   ErrorCode = 17002
	RuntimeUnavailable     ErrorCode = 17003

	// ========== Platform API Errors (18000-18999) ==========

	UpstreamError  ErrorCode = 18000
	SessionExpired ErrorCode = 18001
	SessionMissing ErrorCode = 18002
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Authentication
	TokenExpired: "Token has expired",
	TokenInvalid: "Invalid token",

	// Problem
	ProblemNotFound:       "Problem not found",
	ProblemConfigInvalid:  "Invalid configuration",
	SubmitMethodMissing:   "Problem has no submit method",
	StatementMetaInvalid:  "Invalid statement metadata",
	ProblemNotResolvable:  "Cannot resolve problem ID",
	DescriptionRequired:   "Description is required",
	ProblemDataPackFailed: "Failed to pack problem data",

	// Contest
	ContestNotFound:     "Contest not found",
	RankingNotAvailable: "Ranking is not available",

	// Session containers
	ContainerRuntimeFailed: "Container runtime operation failed, state unknown",
	ContainerNotRunning:    "Container is not running",
	ContainerNameInvalid:   "Invalid container name",
	RuntimeUnavailable:     "Container runtime unavailable",

	// Platform API
	UpstreamError:  "Platform API request failed",
	SessionExpired: "Session expired",
	SessionMissing: "Session environment not found",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c >= 11000 && c < 11100: // Authentication errors
		return 401
	case c == Unauthorized, c == SessionExpired:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound, c == ProblemNotFound, c == ContestNotFound:
		return 404
	case c == ContainerRuntimeFailed, c == ContainerNotRunning, c == UpstreamError:
		return 502
	case c == ServiceUnavailable, c == RuntimeUnavailable:
		return 503
	case c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == ContainerNameInvalid:
		return 400
	default:
		return 500
	}
}
