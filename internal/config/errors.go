package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an unusable configuration value, either from
// the file or from the command line.
type ConfigurationError struct {
	FilePath    string   `json:"filePath,omitempty"` // empty for command-line values
	Field       string   `json:"field"`
	ErrorType   string   `json:"errorType"` // io, parse or validation
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	Err         error    `json:"-"`
}

func (ce *ConfigurationError) Error() string {
	source := ce.FilePath
	if source == "" {
		source = "command line"
	}
	if ce.Field == "" {
		return fmt.Sprintf("[%s] %s: %s", ce.ErrorType, source, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", ce.ErrorType, source, ce.Field, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error { return ce.Err }

// DetailedError returns the error with its suggestions, one per line.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range ce.Suggestions {
			parts = append(parts, "    - "+s)
		}
	}
	return strings.Join(parts, "\n")
}
