package unittests

import (
	"context"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/params"
)

func canonicals(t *Fixture, b params.Builder) []string {
	specs, err := b.Collect()
	if err != nil {
		t.Fail(err.Error())
		return nil
	}
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Canonical()
	}
	return out
}

// ParamsGroup checks the parameter combinators.
func ParamsGroup() group.Runnable {
	g := newGroup()

	g.Test("options", func(ctx context.Context, t *Fixture) error {
		t.ExpectEqual(canonicals(t, params.Options("x", 1, "a", true)), []string{`{"x":1}`, `{"x":"a"}`, `{"x":true}`}, "specs")
		t.ExpectEqual(len(canonicals(t, params.Options("x"))), 0, "no choices")
		return nil
	})

	g.Test("combine", func(ctx context.Context, t *Fixture) error {
		got := canonicals(t, params.Combine(params.Options("x", 1, 2), params.Options("y", 3, 4)))
		t.ExpectEqual(got, []string{`{"x":1,"y":3}`, `{"x":1,"y":4}`, `{"x":2,"y":3}`, `{"x":2,"y":4}`}, "row-major product")
		t.ExpectEqual(canonicals(t, params.Combine()), []string{"{}"}, "empty product")
		return nil
	})

	g.Test("filter", func(ctx context.Context, t *Fixture) error {
		b := params.Combine(params.Options("x", 1, 2), params.Options("y", 1, 2)).Filter(func(s params.Spec) bool {
			return !params.Equal(s.Lookup("x"), s.Lookup("y"))
		})
		t.ExpectEqual(canonicals(t, b), []string{`{"x":1,"y":2}`, `{"x":2,"y":1}`}, "x != y")
		return nil
	})

	g.Test("deterministic", func(ctx context.Context, t *Fixture) error {
		b := params.Combine(params.Options("x", 1, 2, 3), params.Options("y", "a", "b"))
		t.ExpectEqual(canonicals(t, b), canonicals(t, b), "second iteration")
		return nil
	})

	g.Test("key_collision", func(ctx context.Context, t *Fixture) error {
		_, err := params.Combine(params.Options("x", 1), params.Options("x", 2)).Collect()
		t.ExpectErrorIs(err, params.ErrKeyCollision, "merge")
		return nil
	})

	g.Test("equality", func(ctx context.Context, t *Fixture) error {
		a := params.MustSpec(params.F("a", 1), params.F("b", []any{1, "x"}))
		b := params.MustSpec(params.F("b", []any{1, "x"}), params.F("a", 1))
		t.Expect(a.Equal(b), "key order is irrelevant")
		t.Expect(!params.Empty().Equal(params.Spec{}), "{} is not null")
		t.Expect(a.Contains(params.MustSpec(params.F("a", 1))), "subset")
		return nil
	})

	return g
}
