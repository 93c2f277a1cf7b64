package models

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks failures caused by missing credentials or settings.
var ErrNotConfigured = errors.New("provider not configured")

// ConfigError describes a missing setting in terms a caller can act on.
type ConfigError struct {
	Setting string
	Message string
	Hint    string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotConfigured, e.Err}
	}
	return []error{ErrNotConfigured}
}
