// Package suites registers the suites compiled into the cts binary.
package suites

import (
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/internal/suites/demos"
	"github.com/giantswarm/cts/internal/suites/unittests"
)

// Registry returns a registry holding every built-in suite.
func Registry() (*loader.Registry, error) {
	r := loader.NewRegistry()
	for _, register := range []func(*loader.Registry) error{
		unittests.Register,
		demos.Register,
	} {
		if err := register(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
