package ime

import "errors"

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("ime engine closed")

// SessionError is an operation the current state does not allow: paging past
// the ends, confirming with nothing pending, picking outside correction mode.
// The engine state is left unchanged.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SessionError) Unwrap() error { return e.Err }
