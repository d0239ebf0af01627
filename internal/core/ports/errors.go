package ports

import (
	"errors"
	"fmt"
)

// Error codes shared by completion and web search providers.
const (
	ErrCodeUnavailable       = "unavailable"
	ErrCodeTransport         = "transport"
	ErrCodeMalformedResponse = "malformed_response"
)

// ProviderError describes a failure in an outbound provider call. Code is one
// of the ErrCode constants, Provider names the adapter that produced it.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError wrapping err, which may be nil.
func NewProviderError(provider, code, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message, Err: err}
}

// IsUnavailable reports whether err is a provider error for a backend that is
// not configured or not reachable at all.
func IsUnavailable(err error) bool {
	return hasCode(err, ErrCodeUnavailable)
}

// IsTransport reports whether err is a provider error for a failed or timed
// out call to a configured backend.
func IsTransport(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsMalformedResponse reports whether err is a provider error for a backend
// response that could not be decoded.
func IsMalformedResponse(err error) bool {
	return hasCode(err, ErrCodeMalformedResponse)
}

func hasCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
