package dictionary

import (
	"errors"
	"fmt"
)

// ErrLoad is matched by every *LoadError via errors.Is.
var ErrLoad = errors.New("dictionary unavailable")

// LoadError reports a dictionary that could not be read or decoded.
type LoadError struct {
	Source string
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load %s dictionary: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("load %s dictionary %s: %v", e.Format, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
