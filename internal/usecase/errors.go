package usecase

import (
	"fmt"

	"github.com/jans-saya/DOIT/internal/domain"
)

type ErrorCode string

const (
	ErrorUnavailable    ErrorCode = "UNAVAILABLE"
	ErrorNoData         ErrorCode = "NO_DATA"
	ErrorNoMessages     ErrorCode = "NO_MESSAGES"
	ErrorAuthentication ErrorCode = "AUTHENTICATION"
	ErrorRateLimited    ErrorCode = "RATE_LIMITED"
	ErrorUpstream       ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal       ErrorCode = "INTERNAL_ERROR"
)

// providerErrorCodes maps a classified provider failure to a gateway error code.
var providerErrorCodes = map[domain.ProviderErrorKind]ErrorCode{
	domain.ProviderAuthentication: ErrorAuthentication,
	domain.ProviderRateLimit:      ErrorRateLimited,
	domain.ProviderAPI:            ErrorUpstream,
}

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Detail is the caller-safe description of the failure: the provider's own
// message when there is one, otherwise the wrapped error text or the reason.
func (e *Error) Detail() string {
	if e == nil {
		return ""
	}
	if pe, ok := domain.AsProviderError(e.Err); ok && pe.Message != "" {
		return pe.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// providerError converts an LLM call failure into a gateway error. Anything
// that is not a classified provider failure is internal.
func providerError(reason string, err error) *Error {
	pe, ok := domain.AsProviderError(err)
	if !ok {
		return newError(ErrorInternal, reason, err)
	}
	code, ok := providerErrorCodes[pe.Kind]
	if !ok {
		code = ErrorUpstream
	}
	return newError(code, reason, err)
}
