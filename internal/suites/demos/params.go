package demos

import (
	"context"
	"fmt"
	"strings"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/params"
)

// ParamsGroup expands tests over parameter combinations.
func ParamsGroup() group.Runnable {
	g := group.NewDefault()

	g.Test("greeting", func(ctx context.Context, t *group.DefaultFixture) error {
		name, _ := t.Params().Lookup("name").AsString()
		greeting := "hello " + name
		t.Expect(strings.HasSuffix(greeting, name), "greeting ends with the name")
		t.Logf("greeted %s", name)
		return nil
	}).Params(params.Options("name", "alice", "bob", "carol"))

	// Circles only come in odd sizes.
	g.Test("combined", func(ctx context.Context, t *group.DefaultFixture) error {
		size, _ := t.Params().Lookup("size").AsNumber()
		shape, _ := t.Params().Lookup("shape").AsString()
		t.Expect(size > 0, "size is positive")
		t.Expect(shape != "circle" || int(size)%2 == 1, fmt.Sprintf("circle of size %v", size))
		return nil
	}).Params(params.Combine(
		params.Options("size", 1, 2, 3),
		params.Options("shape", "square", "circle"),
	).Filter(func(p params.Spec) bool {
		size, _ := p.Lookup("size").AsNumber()
		shape, _ := p.Lookup("shape").AsString()
		return shape != "circle" || int(size)%2 == 1
	}))

	g.Test("literal", func(ctx context.Context, t *group.DefaultFixture) error {
		a, _ := t.Params().Lookup("a").AsNumber()
		b, _ := t.Params().Lookup("b").AsNumber()
		sum, _ := t.Params().Lookup("sum").AsNumber()
		t.Expect(a+b == sum, fmt.Sprintf("%v + %v = %v", a, b, sum))
		return nil
	}).Params(params.Literal(
		params.MustSpec(params.F("a", 1), params.F("b", 2), params.F("sum", 3)),
		params.MustSpec(params.F("a", 0.5), params.F("b", 0.25), params.F("sum", 0.75)),
	))

	return g
}
