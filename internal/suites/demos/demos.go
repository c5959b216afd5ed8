// Package demos shows how test groups are written: parameterized tests,
// fixtures with setup and teardown, and the outcomes a case can have.
package demos

import (
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/pkg/group"
)

const Suite = "demos"

// Register adds the demo groups to r.
func Register(r *loader.Registry) error {
	for _, add := range []struct {
		path, desc string
		newGroup   func() group.Runnable
	}{
		{"", "Examples of writing test groups.", nil},
		{"params", "Parameterized tests built from options, products and filters.", ParamsGroup},
		{"lifecycle", "A fixture with setup and teardown around each case.", LifecycleGroup},
		{"outcomes", "Cases that warn and expect errors.", OutcomesGroup},
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
