package unittests

import (
	"context"
	"strings"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
	"github.com/giantswarm/cts/pkg/query"
)

// runInner runs every case of g against a fresh logger and returns its log.
func runInner(ctx context.Context, t *Fixture, g group.Runnable) *logger.GroupLog {
	if err := g.Err(); err != nil {
		t.Fail("inner group: " + err.Error())
		return &logger.GroupLog{}
	}
	gl, rec := logger.New().Record("")
	for rc := range g.Iterate(rec) {
		if _, err := rc.Run(ctx); err != nil {
			t.Fail(err.Error())
		}
	}
	return gl
}

type printer struct {
	*group.DefaultFixture
}

func (p *printer) print(msg string) {
	p.Log(msg)
}

// TestGroupGroup checks registration, expansion and fixtures.
func TestGroupGroup() group.Runnable {
	g := newGroup()

	g.Test("default_fixture", func(ctx context.Context, t *Fixture) error {
		inner := group.NewDefault()
		inner.Test("test", func(ctx context.Context, it *group.DefaultFixture) error {
			it.OK()
			return nil
		})
		gl := runInner(ctx, t, inner)
		t.ExpectEqual(len(gl.Cases), 1, "cases")
		t.Expect(len(gl.Cases) == 1 && gl.Cases[0].Status == logger.StatusPass, "inner case passes")
		return nil
	})

	g.Test("custom_fixture", func(ctx context.Context, t *Fixture) error {
		inner := group.New(func(rec *logger.CaseRecorder, p params.Spec) *printer {
			return &printer{DefaultFixture: group.NewDefaultFixture(rec, p)}
		})
		inner.Test("test", func(ctx context.Context, it *printer) error {
			it.print("foo")
			return nil
		})
		gl := runInner(ctx, t, inner)
		t.Expect(len(gl.Cases) == 1, "one case")
		if len(gl.Cases) == 1 {
			t.ExpectEqual(gl.Cases[0].Logs, []string{"foo"}, "logs")
		}
		return nil
	})

	g.Test("duplicate_test_name", func(ctx context.Context, t *Fixture) error {
		inner := group.NewDefault()
		noop := func(ctx context.Context, it *group.DefaultFixture) error { return nil }
		inner.Test("abc", noop)
		t.ExpectErrorIs(inner.Test("abc", noop).Err(), group.ErrDuplicateTest, "second registration")
		return nil
	})

	g.Test("invalid_test_name", func(ctx context.Context, t *Fixture) error {
		n, _ := t.Params().Lookup("char").AsNumber()
		c := []rune(query.ReservedChars)[int(n)]
		inner := group.NewDefault()
		noop := func(ctx context.Context, it *group.DefaultFixture) error { return nil }
		t.ExpectErrorIs(inner.Test("a"+string(c), noop).Err(), query.ErrInvalidName, "name ending in "+string(c))
		t.ExpectErrorIs(inner.Test(string(c)+"a", noop).Err(), query.ErrInvalidName, "name starting with "+string(c))
		return nil
	}).Params(params.Options("char", charIndexes()...))

	g.Test("duplicate_case", func(ctx context.Context, t *Fixture) error {
		inner := group.NewDefault()
		err := inner.Test("p", func(ctx context.Context, it *group.DefaultFixture) error { return nil }).
			Params(params.Literal(
				params.MustSpec(params.F("a", 1), params.F("b", 2)),
				params.MustSpec(params.F("b", 2), params.F("a", 1)),
			)).Err()
		t.ExpectErrorIs(err, group.ErrDuplicateCase, "equal params in another order")
		return nil
	})

	g.Test("expansion_order", func(ctx context.Context, t *Fixture) error {
		inner := group.NewDefault()
		inner.Test("p", func(ctx context.Context, it *group.DefaultFixture) error { return nil }).
			Params(params.Combine(params.Options("x", 1, 2), params.Options("y", "a", "b")))
		var got []string
		for tc := range inner.Cases() {
			got = append(got, tc.String())
		}
		t.ExpectEqual(strings.Join(got, " "), `p:{"x":1,"y":"a"} p:{"x":1,"y":"b"} p:{"x":2,"y":"a"} p:{"x":2,"y":"b"}`, "cases")
		return nil
	})

	g.Test("panic_is_failure", func(ctx context.Context, t *Fixture) error {
		inner := group.NewDefault()
		inner.Test("boom", func(ctx context.Context, it *group.DefaultFixture) error {
			panic("boom")
		})
		gl := runInner(ctx, t, inner)
		t.Expect(len(gl.Cases) == 1 && gl.Cases[0].Status == logger.StatusFail, "panicking case fails")
		return nil
	})

	return g
}

func charIndexes() []any {
	n := len([]rune(query.ReservedChars))
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}
