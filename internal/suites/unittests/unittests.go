package unittests

import (
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/pkg/group"
)

// Suite is the name the self tests are registered under.
const Suite = "unittests"

// Register adds the self-test groups to r.
func Register(r *loader.Registry) error {
	for _, add := range []struct {
		path, desc string
		newGroup   func() group.Runnable
	}{
		{"", "Self tests of the cts harness.", nil},
		{"logger", "Case recorder state machine and result document.", LoggerGroup},
		{"test_group", "Test registration, expansion and fixtures.", TestGroupGroup},
		{"loading", "Filter resolution against a mock suite layout.", LoadingGroup},
		{"params", "Parameter combinators and spec equality.", ParamsGroup},
	} {
		var g group.Runnable
		if add.newGroup != nil {
			g = add.newGroup()
		}
		if err := r.Add(Suite, add.path, add.desc, g); err != nil {
			return err
		}
	}
	return nil
}
