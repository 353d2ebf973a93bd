package config

import "errors"

// ErrNotConfigured marks a generation backend that cannot be used. Local
// dictionary matching does not depend on it.
var ErrNotConfigured = errors.New("generation backend not configured")

// ConfigurationError names the setting that is missing or unreadable.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return "config: " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func missing(field string) error {
	return &ConfigurationError{Field: field, Err: ErrNotConfigured}
}
