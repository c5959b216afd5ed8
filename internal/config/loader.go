package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/cts/pkg/logging"
	"github.com/giantswarm/cts/pkg/query"
)

// Load reads the configuration at path. When explicit is false the path is
// the default location and a missing file yields DefaultConfig.
func Load(path string, explicit bool) (RunConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Debug("ConfigLoader", "No %s found, using defaults", path)
			return config, nil
		}
		return RunConfig{}, &ConfigurationError{
			FilePath:  path,
			ErrorType: "io",
			Message:   err.Error(),
			Err:       err,
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return RunConfig{}, &ConfigurationError{
			FilePath:    path,
			ErrorType:   "parse",
			Message:     err.Error(),
			Suggestions: []string{
				"known fields are filters, exclude, concurrency, report, verbose and debug",
				`quote filters that end in ':' or contain ": ", e.g. - "suite:group:"`,
			},
			Err:         err,
		}
	}

	if err := config.Validate(); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.FilePath = path
		}
		return RunConfig{}, err
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}

// Validate checks every field and returns the first problem as a
// ConfigurationError.
func (c RunConfig) Validate() error {
	if c.Concurrency < 0 {
		return &ConfigurationError{
			Field:       "concurrency",
			ErrorType:   "validation",
			Message:     fmt.Sprintf("must not be negative, got %d", c.Concurrency),
			Suggestions: []string{"use 0 to run every case at once"},
		}
	}
	if _, err := c.ParsedFilters(); err != nil {
		return err
	}
	if _, err := c.ParsedExclude(); err != nil {
		return err
	}
	if c.Report != "" {
		switch strings.ToLower(filepath.Ext(c.Report)) {
		case ".json", ".yaml", ".yml":
		default:
			return &ConfigurationError{
				Field:       "report",
				ErrorType:   "validation",
				Message:     fmt.Sprintf("unsupported report format %q", c.Report),
				Suggestions: []string{"end the report path with .json, .yaml or .yml"},
			}
		}
	}
	return nil
}

// ParsedFilters parses Filters.
func (c RunConfig) ParsedFilters() (query.Filters, error) {
	return parseFilters("filters", c.Filters)
}

// ParsedExclude parses Exclude.
func (c RunConfig) ParsedExclude() (query.Filters, error) {
	return parseFilters("exclude", c.Exclude)
}

func parseFilters(field string, raw []string) (query.Filters, error) {
	fs, err := query.ParseAll(raw)
	if err != nil {
		return nil, &ConfigurationError{
			Field:       field,
			ErrorType:   "validation",
			Message:     err.Error(),
			Suggestions: []string{`filters look like suite[:group[:test[:{"param":value}]]]`},
			Err:         err,
		}
	}
	return fs, nil
}
