package nextion

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every ConfigError
var ErrConfiguration = errors.New("nextion: invalid configuration")

// ErrInvalidColorFormat is returned for color strings that are not #RRGGBB
var ErrInvalidColorFormat = errors.New("nextion: invalid color format")

// ConfigError indicates a missing or invalid link or baud rate. It is returned
// before any connection attempt.
type ConfigError struct {
	Field string
	Value interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %v", ErrConfiguration, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// TransportError wraps failures of the underlying serial or network link.
// The connection should be considered unusable after one was reported.
type TransportError struct {
	Op  string // "open", "read", "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("nextion: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
