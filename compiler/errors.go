package compiler

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigError.
var ErrInvalidConfig = errors.New("relmap: invalid compiler configuration")

// ConfigError represents an invalid compiler option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("relmap: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("relmap: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// QueryError reports an invalid query document.
type QueryError struct {
	Name  string // Document name, the file path when loaded from disk.
	Term  string // Offending filter term, if any.
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := "relmap: query"
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Term != "" {
		msg += ": term " + e.Term
	}
	return msg + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error { return e.Cause }
