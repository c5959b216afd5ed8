package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/cts/pkg/query"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), DefaultConfigFile), false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "io", ce.ErrorType)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
filters:
  - unittests
  - 'demos:params:combined~{"size":2}'
exclude:
  - unittests:loading
concurrency: 4
report: out/report.yaml
verbose: true
`)
	config, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"unittests", `demos:params:combined~{"size":2}`}, config.Filters)
	assert.Equal(t, []string{"unittests:loading"}, config.Exclude)
	assert.Equal(t, 4, config.Concurrency)
	assert.Equal(t, "out/report.yaml", config.Report)
	assert.True(t, config.Verbose)
	assert.False(t, config.Debug)

	fs, err := config.ParsedFilters()
	require.NoError(t, err)
	require.Len(t, fs, 2)
	match, _ := fs[1].Params()
	assert.Equal(t, query.SubsetParams, match)
}

func TestLoad_EmptyFile(t *testing.T) {
	config, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errorType string
		field     string
	}{
		{name: "malformed yaml", content: "filters: [", errorType: "parse"},
		{name: "unknown field", content: "paralel: 3", errorType: "parse"},
		{name: "negative concurrency", content: "concurrency: -1", errorType: "validation", field: "concurrency"},
		{name: "bad filter", content: "filters: ['a.b']", errorType: "validation", field: "filters"},
		{name: "bad exclude", content: "exclude: ['a::b::']", errorType: "validation", field: "exclude"},
		{name: "bad report", content: "report: out.txt", errorType: "validation", field: "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path, true)

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.errorType, ce.ErrorType)
			assert.Equal(t, tt.field, ce.Field)
			assert.Equal(t, path, ce.FilePath)
			assert.Contains(t, ce.Error(), path)
		})
	}
}

func TestLoad_UnquotedExactGroupFilter(t *testing.T) {
	_, err := Load(writeConfig(t, "filters:\n  - demos:outcomes:\n"), true)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "parse", ce.ErrorType)
	assert.Contains(t, ce.DetailedError(), "quote filters that end in ':'")

	config, err := Load(writeConfig(t, "filters:\n  - \"demos:outcomes:\"\n"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"demos:outcomes:"}, config.Filters)
}

func TestValidate_CommandLine(t *testing.T) {
	err := RunConfig{Filters: []string{":x"}}.Validate()

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, query.ErrMalformedFilter)
	assert.Contains(t, ce.Error(), "command line")
	assert.Contains(t, ce.DetailedError(), "Suggestions:")
}
