package prompt

import "fmt"

// ConfigError reports static content that is missing, empty or
// malformed. It is a deployment problem, not a per-request one.
type ConfigError struct {
	File string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("prompt configuration: %s: %v", e.File, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
