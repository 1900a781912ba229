package model

import "fmt"

// ConfigError is a fatal startup problem: an invalid search pattern, an
// invalid path pattern, or an unusable root directory. It is surfaced before
// any scan begins and aborts the invocation.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError constructs a ConfigError for the named input field.
func NewConfigError(field, reason string, err error) *ConfigError {
	return &ConfigError{Field: field, Reason: reason, Err: err}
}
