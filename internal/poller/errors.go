package poller

import (
	"errors"
	"fmt"
)

// ErrStreamNotFound reports that the wanted log stream does not exist
// upstream, either because the group has not produced one yet or because
// an already-resolved stream rotated away. It is always recoverable: the
// poller re-resolves and keeps going.
var ErrStreamNotFound = errors.New("log stream not found")

// ConfigError reports a missing or invalid configuration field. It is
// fatal; the loop never starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// TransientError wraps a fetch failure worth retrying on the next tick,
// such as throttling or a dropped connection.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retriable on the next tick.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
