package domain

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies a failed provider call.
type ProviderErrorKind string

const (
	ProviderAuthentication ProviderErrorKind = "authentication"
	ProviderRateLimit      ProviderErrorKind = "rate_limit"
	ProviderAPI            ProviderErrorKind = "api"
)

// ProviderError is returned by provider integrations for every failure the
// provider (or the transport to it) reported.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("provider %s error: %s", e.Kind, msg)
	}
	if e.Type != "" {
		return fmt.Sprintf("provider %s error (%d %s): %s", e.Kind, e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("provider %s error (%d): %s", e.Kind, e.StatusCode, msg)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AsProviderError reports whether err wraps a *ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
