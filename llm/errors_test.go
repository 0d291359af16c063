package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrRateLimited, "too many requests")
	assert.Equal(t, "[LLM_RATE_LIMITED] too many requests", err.Error())

	cause := errors.New("429 from upstream")
	err = err.WithCause(cause)
	assert.Equal(t, "[LLM_RATE_LIMITED] too many requests: 429 from upstream", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestErrorChaining(t *testing.T) {
	cause := errors.New("tcp reset")
	err := NewError(ErrUpstreamError, "request failed").WithCause(cause).WithProvider("gemini")

	assert.Equal(t, "gemini", err.Provider)
	assert.ErrorIs(t, err, cause)

	var le *Error
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &le)
	assert.Equal(t, ErrUpstreamError, le.Code)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrForbidden, GetErrorCode(NewError(ErrForbidden, "no")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestIsRetryable(t *testing.T) {
	retryable := &Error{Code: ErrRateLimited, Retryable: true}
	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(NewError(ErrUnauthorized, "no")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
