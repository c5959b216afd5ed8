package demos

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/giantswarm/cts/pkg/group"
)

// OutcomesGroup shows the recorder helpers. Its cases pass; see the unittests
// suite for cases that fail on purpose.
func OutcomesGroup() group.Runnable {
	g := group.NewDefault()

	g.Test("should_error", func(ctx context.Context, t *group.DefaultFixture) error {
		t.ShouldError(func() error {
			_, err := strconv.Atoi("not a number")
			return err
		}, "parsing garbage")
		return nil
	})

	g.Test("should_panic", func(ctx context.Context, t *group.DefaultFixture) error {
		t.ShouldPanic(func() {
			var m map[string]int
			m["x"] = 1
		}, "writing a nil map")
		return nil
	})

	g.Test("wrapped_errors", func(ctx context.Context, t *group.DefaultFixture) error {
		base := errors.New("base")
		err := errors.Wrap(base, "context")
		t.Expect(errors.Is(err, base), "wrapped error matches its cause")
		t.Expect(errors.Cause(err) == base, "cause unwraps")
		return nil
	})

	return g
}
