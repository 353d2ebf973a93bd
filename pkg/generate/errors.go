package generate

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means no backend endpoint or key is configured.
	ErrConfigurationMissing = errors.New("generation backend not configured")
	// ErrBadRequest means the backend rejected the request as malformed.
	ErrBadRequest = errors.New("bad generation request")
	// ErrUpstreamFailure covers transport errors and non-2xx responses.
	ErrUpstreamFailure = errors.New("generation upstream failure")
	// ErrMalformedResponse means the response carried no generated text.
	ErrMalformedResponse = errors.New("malformed generation response")
)

// GenerationError is a failed generation call. Kind is one of the sentinel
// errors above; Status is the upstream HTTP status when there was one.
type GenerationError struct {
	Kind   error
	Status int
	Err    error
}

func (e *GenerationError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches the error kind.
func (e *GenerationError) Is(target error) bool {
	return target == e.Kind
}

// Errorf builds a GenerationError of the given kind with a formatted cause.
func Errorf(kind error, status int, format string, args ...any) *GenerationError {
	return &GenerationError{Kind: kind, Status: status, Err: fmt.Errorf(format, args...)}
}
