// Package config loads the run configuration of the cts binary.
//
// The configuration lives in an optional YAML file, .cts.yaml in the working
// directory unless --config names another one:
//
//	filters:
//	  - unittests
//	  - "unittests:logger:"
//	  - demos:params:combined~{"size":2}
//	exclude:
//	  - unittests:loading
//	concurrency: 8
//	report: results/cts.json
//	verbose: false
//	debug: false
//
// Filters ending in ':' must be quoted, otherwise YAML reads them as mapping
// keys.
//
// Command-line flags override file values; filters given as arguments
// replace the configured ones.
package config
