package config

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given. A missing default file is not an error.
const DefaultConfigFile = ".cts.yaml"

// RunConfig holds everything a run needs besides the suites themselves.
type RunConfig struct {
	// Filters select the cases to run; empty selects every suite.
	Filters []string `yaml:"filters,omitempty"`
	// Exclude removes matching cases from the selection.
	Exclude []string `yaml:"exclude,omitempty"`
	// Concurrency bounds the number of cases running at once; 0 is unbounded.
	Concurrency int `yaml:"concurrency,omitempty"`
	// Report is the path of the result document (.json, .yaml or .yml).
	Report  string `yaml:"report,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
	Debug   bool   `yaml:"debug,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() RunConfig {
	return RunConfig{}
}
