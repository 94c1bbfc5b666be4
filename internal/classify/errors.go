package classify

import (
	"errors"
	"fmt"
)

// ErrConfig marks configuration mistakes that stop a run before the graph is
// touched.
var ErrConfig = errors.New("manualchunks: invalid configuration")

// ConfigError names the offending option.
type ConfigError struct {
	Option string
	Msg    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfig.Error(), e.Option, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func missing(option string) error {
	return &ConfigError{Option: option, Msg: "is required"}
}
