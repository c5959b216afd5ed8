package unittests

import (
	"context"
	"fmt"
	"strings"

	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/internal/runner"
	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
	"github.com/giantswarm/cts/pkg/query"
)

// mockSuites is a fake source with two suites:
//
//	suite1: ''(readme) foo bar/(readme) bar/buzz baz
//	suite2: ''(readme) foof
func mockSuites() (*loader.Registry, error) {
	ok := func(ctx context.Context, t *group.DefaultFixture) error {
		t.OK()
		return nil
	}

	foo := group.NewDefault()
	foo.Test("hello", ok)
	foo.Test("bonjour", ok)
	foo.Test("hola", ok)

	buzz := group.NewDefault()
	buzz.Test("zap", ok)

	baz := group.NewDefault()
	baz.Test("zed", ok).Params(params.Literal(
		params.MustSpec(params.F("a", 1), params.F("b", 2)),
		params.MustSpec(params.F("a", 1), params.F("b", 3)),
	))

	foof := group.NewDefault()
	foof.Test("blah", ok)
	foof.Test("bleh", ok).Params(params.Literal(params.Empty()))

	r := loader.NewRegistry()
	for _, add := range []struct {
		suite, path, desc string
		g                 group.Runnable
	}{
		{"suite1", "", "desc 1a", nil},
		{"suite1", "foo", "desc 1b", foo},
		{"suite1", "bar/", "desc 1c", nil},
		{"suite1", "bar/buzz", "desc 1d", buzz},
		{"suite1", "baz", "desc 1e", baz},
		{"suite2", "", "desc 2a", nil},
		{"suite2", "foof", "desc 2b", foof},
	} {
		if err := r.Add(add.suite, add.path, add.desc, add.g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func loadMock(ctx context.Context, filter string) ([]loader.Entry, error) {
	r, err := mockSuites()
	if err != nil {
		return nil, err
	}
	f, err := query.Parse(filter)
	if err != nil {
		return nil, err
	}
	return loader.New(r).Load(ctx, query.Filters{f})
}

type loadCase struct {
	filter  string
	entries int
	cases   int
}

func checkLoads(ctx context.Context, t *Fixture, cases []loadCase) error {
	for _, c := range cases {
		entries, err := loadMock(ctx, c.filter)
		if err != nil {
			return fmt.Errorf("load %s: %w", c.filter, err)
		}
		t.ExpectEqual(len(entries), c.entries, c.filter+" entries")
		if c.cases >= 0 {
			t.ExpectEqual(loader.CountCases(entries), c.cases, c.filter+" cases")
		}
	}
	return nil
}

// LoadingGroup checks filter resolution against the mock suites.
func LoadingGroup() group.Runnable {
	g := newGroup()

	g.Test("whole_suite", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1", entries: 5, cases: 6},
			{filter: "suite1:", entries: 5, cases: 6},
		})
	})

	g.Test("group_prefix", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1:f", entries: 1, cases: 3},
			{filter: "suite1:fo", entries: 1, cases: 3},
			{filter: "suite1:foo", entries: 1, cases: 3},
			{filter: "suite1:foof", entries: 0, cases: 0},
			{filter: "suite1:ba", entries: 3, cases: 3},
			{filter: "suite1:bar", entries: 2, cases: 1},
			{filter: "suite1:bar/", entries: 2, cases: 1},
			{filter: "suite1:bar/b", entries: 1, cases: 1},
		})
	})

	g.Test("group_exact_rejects_missing_tests", func(ctx context.Context, t *Fixture) error {
		for _, filter := range []string{"suite1::", "suite1:bar:", "suite1:bar/:"} {
			_, err := loadMock(ctx, filter)
			t.Expect(err != nil, filter+" must be rejected")
		}
		return nil
	})

	g.Test("group_exact", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1:bar/buzz:", entries: 1, cases: 1},
			{filter: "suite1:baz:", entries: 1, cases: 2},
		})
	})

	g.Test("test_prefix", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1:foo:h", entries: 1, cases: 2},
			{filter: "suite1:foo:he", entries: 1, cases: 1},
			{filter: "suite1:foo:hello", entries: 1, cases: 1},
			{filter: "suite1:baz:zed", entries: 1, cases: 2},
		})
	})

	g.Test("params_exact", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1:foo:hello:", entries: 1, cases: 1},
			{filter: "suite1:baz:zed:", entries: 1, cases: 0},
			{filter: "suite1:baz:zed:{}", entries: 1, cases: 0},
			{filter: `suite1:baz:zed:{"a":1,"b":2}`, entries: 1, cases: 1},
			{filter: `suite1:baz:zed:{"b":2,"a":1}`, entries: 1, cases: 1},
		})
	})

	g.Test("params_subset", func(ctx context.Context, t *Fixture) error {
		return checkLoads(ctx, t, []loadCase{
			{filter: "suite1:baz:zed~", entries: 1, cases: 2},
			{filter: "suite1:baz:zed~{}", entries: 1, cases: 2},
			{filter: `suite1:baz:zed~{"a":1}`, entries: 1, cases: 2},
			{filter: `suite1:baz:zed~{"a":1,"b":2}`, entries: 1, cases: 1},
			{filter: `suite1:baz:zed~{"b":2,"a":1}`, entries: 1, cases: 1},
			{filter: `suite1:baz:zed~{"b":2}`, entries: 1, cases: 1},
			{filter: `suite1:baz:zed~{"a":2}`, entries: 1, cases: 0},
			{filter: `suite1:baz:zed~{"c":3}`, entries: 1, cases: 0},
		})
	})

	g.Test("end2end", func(ctx context.Context, t *Fixture) error {
		entries, err := loadMock(ctx, "suite1:foo:")
		if err != nil {
			return err
		}
		log := logger.New()
		summary, err := runner.New().Run(ctx, log, entries)
		if err != nil {
			return err
		}
		t.ExpectEqual(len(summary.Passed), 3, "passed")
		for _, gl := range log.Results() {
			for _, c := range gl.Cases {
				t.Expect(c.Status == logger.StatusPass, c.Name+" passes")
				t.ExpectEqual(strings.Join(c.Logs, ","), "OK", c.Name+" logs")
			}
		}
		return nil
	})

	return g
}
