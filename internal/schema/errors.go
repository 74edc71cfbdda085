package schema

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("invalid mapping configuration")

// ConfigurationError reports an invalid declared shape: missing names, empty
// tables, unresolvable collection element types and similar mapping mistakes.
type ConfigurationError struct {
	Subject string
	Msg     string
	Err     error
}

// Configurationf builds a ConfigurationError for subject with a formatted message.
func Configurationf(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Subject != "" {
		msg = e.Subject + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "configuration error: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
