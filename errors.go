package tellus

import "fmt"

// ConfigurationError rejects a malformed domain description at
// construction. It is the only fatal condition the kernel raises: numeric
// trouble during a run recovers (timestep shrink), reports (conservation
// drift), or promotes (precision underflow) instead of failing.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tellus: configuration (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func confErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}
