package common

import (
	"errors"
)

// Error kinds. Every per-request failure wraps exactly one of them.
var (
	ErrMissingHost      = errors.New("missing Host header")
	ErrInvalidAuthority = errors.New("invalid authority")
	ErrTransport        = errors.New("origin transport failure")
	ErrHeaderEncoding   = errors.New("header value is not valid text")
	ErrBodyRead         = errors.New("origin body could not be read")
)

// ProxyError is a per-request failure. errors.Is matches both its Kind and
// the underlying cause.
type ProxyError struct {
	Kind   error
	Detail string
	Err    error
}

func NewError(kind error, detail string, err error) *ProxyError {
	return &ProxyError{
		Kind:   kind,
		Detail: detail,
		Err:    err,
	}
}

func (e *ProxyError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProxyError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a stable label for err, used in logs and metrics.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingHost):
		return "MissingHost"
	case errors.Is(err, ErrInvalidAuthority):
		return "InvalidAuthority"
	case errors.Is(err, ErrTransport):
		return "Transport"
	case errors.Is(err, ErrHeaderEncoding):
		return "HeaderEncoding"
	case errors.Is(err, ErrBodyRead):
		return "BodyRead"
	default:
		return "Unknown"
	}
}
