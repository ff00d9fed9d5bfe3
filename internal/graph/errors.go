package graph

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks an inconsistent package or extension set. It is fatal to the
// resolution of the whole application.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError wraps ErrConfiguration with the identity of the offending package.
type ConfigurationError struct {
	Package string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Package == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Package, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf builds a ConfigurationError for pkg.
func Configf(pkg string, format string, args ...any) error {
	return &ConfigurationError{Package: pkg, Reason: fmt.Sprintf(format, args...)}
}
