package llm

import "fmt"

// ErrorCode aligns provider failures with HTTP status and retryability.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "LLM_INVALID_REQUEST"  // malformed parameters or payload
	ErrUnauthorized    ErrorCode = "LLM_UNAUTHORIZED"     // missing or revoked credentials
	ErrForbidden       ErrorCode = "LLM_FORBIDDEN"        // permission or content policy refusal
	ErrRateLimited     ErrorCode = "LLM_RATE_LIMITED"     // upstream throttling
	ErrQuotaExceeded   ErrorCode = "LLM_QUOTA_EXCEEDED"   // credits/quota exhausted
	ErrToolValidation  ErrorCode = "LLM_TOOL_VALIDATION"  // model tool output failed validation
	ErrModelOverloaded ErrorCode = "LLM_MODEL_OVERLOADED" // upstream overload (529)
	ErrUpstreamTimeout ErrorCode = "LLM_UPSTREAM_TIMEOUT" // request deadline expired
	ErrUpstreamError   ErrorCode = "LLM_UPSTREAM_ERROR"   // upstream 5xx or network failure

	ErrMissingCredential ErrorCode = "LLM_MISSING_CREDENTIAL" // no API key or OAuth token configured
	ErrMissingModel      ErrorCode = "LLM_MISSING_MODEL"      // adapter requires an explicit model id
	ErrMissingContext    ErrorCode = "LLM_MISSING_CONTEXT"    // first turn without page content or structure
	ErrIterationBudget   ErrorCode = "LLM_ITERATION_BUDGET"   // agentic loop cap exhausted
)

// Error is the structured error surfaced by adapters and the engine.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithProvider tags the originating provider.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable reports whether err carries a retryable code.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the code from an error, or "" for foreign errors.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
