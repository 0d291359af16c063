package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// FailureKind is the small user-facing failure taxonomy. Every error that
// escapes a generate call maps onto exactly one kind, and each kind has
// exactly one user-facing sentence. Raw provider payloads and stack traces
// never reach the user.
type FailureKind string

const (
	FailureAuthentication   FailureKind = "authentication"
	FailureRateLimitOrQuota FailureKind = "rate_limit_or_quota"
	FailureNetwork          FailureKind = "network"
	FailureTimeout          FailureKind = "timeout"
	FailureValidation       FailureKind = "validation"
	FailureUnknown          FailureKind = "unknown"
)

var userMessages = map[FailureKind]string{
	FailureAuthentication:   "Authentication failed; check that the configured API key or token is valid.",
	FailureRateLimitOrQuota: "The provider rejected the request due to rate limits or exhausted quota; try again later.",
	FailureNetwork:          "Could not reach the provider; check the network connection and endpoint.",
	FailureTimeout:          "The request timed out before the provider responded.",
	FailureValidation:       "The model returned output that failed validation; no changes were applied.",
	FailureUnknown:          "The request failed unexpectedly; try again.",
}

// UserMessage returns the single user-facing sentence for the kind.
func (k FailureKind) UserMessage() string {
	if msg, ok := userMessages[k]; ok {
		return msg
	}
	return userMessages[FailureUnknown]
}

// Classify maps any error escaping the engine onto a FailureKind.
// Structured *Error values classify by code; context and net errors cover
// the transport cases the adapters cannot tag themselves.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}

	var le *Error
	if errors.As(err, &le) {
		switch le.Code {
		case ErrUnauthorized, ErrForbidden, ErrMissingCredential:
			return FailureAuthentication
		case ErrRateLimited, ErrQuotaExceeded, ErrModelOverloaded:
			return FailureRateLimitOrQuota
		case ErrUpstreamTimeout:
			return FailureTimeout
		case ErrUpstreamError:
			return FailureNetwork
		case ErrToolValidation:
			return FailureValidation
		}
		return FailureUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	}

	// Last resort for string-ish transport errors from http.Client.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return FailureTimeout
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return FailureNetwork
	}
	return FailureUnknown
}

// UserFacingMessage is a convenience combining Classify and UserMessage.
func UserFacingMessage(err error) string {
	return Classify(err).UserMessage()
}
