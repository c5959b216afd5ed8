// Package group defines test groups: named, optionally parameterized test
// bodies that expand into concrete cases and run against a fixture.
package group

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"

	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
	"github.com/giantswarm/cts/pkg/query"
)

var (
	ErrDuplicateTest = errors.New("duplicate test name")
	ErrDuplicateCase = errors.New("duplicate test case")
	ErrParamsSet     = errors.New("params already set")
	ErrAlreadyRun    = errors.New("case already run")
)

// Body is a test body. A returned error or a panic fails the case.
type Body[F Fixture] func(ctx context.Context, t F) error

// Runnable is the fixture-independent view of a group used by loaders and
// runners.
type Runnable interface {
	// Iterate yields the cases in registration and expansion order. The
	// result slot of each case is allocated through rec before the case is
	// yielded.
	Iterate(rec *logger.GroupRecorder) iter.Seq[*RunCase]
	// Cases yields the cases without allocating anything.
	Cases() iter.Seq[query.TestCase]
	// Filter returns a view of the group restricted to the cases keep
	// accepts.
	Filter(keep func(query.TestCase) bool) Runnable
	// Tests returns the registered test names.
	Tests() []string
	// Err returns the registration errors, if any.
	Err() error
}

// TestGroup holds the tests of one group.
type TestGroup[F Fixture] struct {
	newFixture NewFixture[F]
	tests      []*Registration[F]
	names      map[string]struct{}
	errs       []error
}

// New returns an empty group whose cases run against fixtures built by
// newFixture.
func New[F Fixture](newFixture NewFixture[F]) *TestGroup[F] {
	return &TestGroup[F]{
		newFixture: newFixture,
		names:      map[string]struct{}{},
	}
}

// NewDefault returns a group using DefaultFixture.
func NewDefault() *TestGroup[*DefaultFixture] {
	return New(NewDefaultFixture)
}

// Registration is one registered test.
type Registration[F Fixture] struct {
	group   *TestGroup[F]
	name    string
	body    Body[F]
	builder *params.Builder
	err     error
}

// Test registers a test. Invalid or duplicate names are recorded as
// registration errors, reported by Err.
func (g *TestGroup[F]) Test(name string, body Body[F]) *Registration[F] {
	r := &Registration[F]{group: g, name: name, body: body}
	if err := query.ValidateName("test", name); err != nil {
		r.fail(err)
		return r
	}
	if _, ok := g.names[name]; ok {
		r.fail(fmt.Errorf("%w: %q", ErrDuplicateTest, name))
		return r
	}
	g.names[name] = struct{}{}
	g.tests = append(g.tests, r)
	return r
}

// Params parameterizes the test with the specs of b. The builder is expanded
// once here to reject key collisions, unaddressable string values and
// duplicate cases.
func (r *Registration[F]) Params(b params.Builder) *Registration[F] {
	if r.err != nil {
		return r
	}
	if r.builder != nil {
		r.fail(fmt.Errorf("test %q: %w", r.name, ErrParamsSet))
		return r
	}

	seen := map[string][]params.Spec{}
	for spec, err := range b.All() {
		if err != nil {
			r.fail(fmt.Errorf("test %q: %w", r.name, err))
			return r
		}
		if err := query.ValidateParamValues(spec); err != nil {
			r.fail(fmt.Errorf("test %q: %w", r.name, err))
			return r
		}
		key := spec.Canonical()
		for _, prev := range seen[key] {
			if prev.Equal(spec) {
				r.fail(fmt.Errorf("test %q: %w: %s", r.name, ErrDuplicateCase, key))
				return r
			}
		}
		seen[key] = append(seen[key], spec)
	}
	r.builder = &b
	return r
}

// Err returns the registration error of this test.
func (r *Registration[F]) Err() error { return r.err }

func (r *Registration[F]) fail(err error) {
	r.err = err
	r.group.errs = append(r.group.errs, err)
}

// Err joins every registration error of the group.
func (g *TestGroup[F]) Err() error {
	return errors.Join(g.errs...)
}

// Tests returns the names of the valid registrations in order.
func (g *TestGroup[F]) Tests() []string {
	var names []string
	for _, r := range g.tests {
		if r.err == nil {
			names = append(names, r.name)
		}
	}
	return names
}

func (g *TestGroup[F]) Iterate(rec *logger.GroupRecorder) iter.Seq[*RunCase] {
	return g.iterate(rec, nil)
}

func (g *TestGroup[F]) Cases() iter.Seq[query.TestCase] {
	return g.cases(nil)
}

func (g *TestGroup[F]) Filter(keep func(query.TestCase) bool) Runnable {
	return &view[F]{group: g, keep: keep}
}

func (g *TestGroup[F]) cases(keep func(query.TestCase) bool) iter.Seq[query.TestCase] {
	return func(yield func(query.TestCase) bool) {
		for _, r := range g.tests {
			if r.err != nil {
				continue
			}
			for tc := range r.expand() {
				if keep != nil && !keep(tc) {
					continue
				}
				if !yield(tc) {
					return
				}
			}
		}
	}
}

func (g *TestGroup[F]) iterate(rec *logger.GroupRecorder, keep func(query.TestCase) bool) iter.Seq[*RunCase] {
	return func(yield func(*RunCase) bool) {
		for _, r := range g.tests {
			if r.err != nil {
				continue
			}
			for tc := range r.expand() {
				if keep != nil && !keep(tc) {
					continue
				}
				result, caseRec := rec.Record(tc.Name, tc.Params)
				rc := &RunCase{
					tc:     tc,
					result: result,
					exec: func(ctx context.Context) {
						r.execute(ctx, caseRec, tc.Params)
					},
				}
				if !yield(rc) {
					return
				}
			}
		}
	}
}

// expand yields the cases of one registration: a single unparameterized case
// or one case per spec of the builder.
func (r *Registration[F]) expand() iter.Seq[query.TestCase] {
	return func(yield func(query.TestCase) bool) {
		if r.builder == nil {
			yield(query.TestCase{Name: r.name})
			return
		}
		for spec, err := range r.builder.All() {
			if err != nil {
				// validated in Params; builders are deterministic
				return
			}
			if !yield(query.TestCase{Name: r.name, Params: spec}) {
				return
			}
		}
	}
}

func (r *Registration[F]) execute(ctx context.Context, rec *logger.CaseRecorder, p params.Spec) {
	rec.Start()
	defer func() { _ = rec.Finish() }()

	var t F
	if err := protect(func() error {
		t = r.group.newFixture(rec, p)
		return nil
	}); err != nil {
		rec.Threw(err)
		return
	}

	if init, ok := any(t).(Initializer); ok {
		if err := protect(func() error { return init.Init(ctx) }); err != nil {
			rec.Threw(pkgerrors.WithMessage(err, "fixture init"))
			return
		}
	}
	if fin, ok := any(t).(Finalizer); ok {
		defer func() {
			if err := protect(func() error { return fin.Finalize(ctx) }); err != nil {
				rec.Threw(pkgerrors.WithMessage(err, "fixture finalize"))
			}
		}()
	}

	if err := protect(func() error { return r.body(ctx, t) }); err != nil {
		rec.Threw(err)
	}
}

// protect runs fn, turning a panic into an error whose stack includes the
// panicking frame.
func protect(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				err = pkgerrors.WithStack(fmt.Errorf("panic: %w", e))
				return
			}
			err = pkgerrors.Errorf("panic: %v", v)
		}
	}()
	return fn()
}

// RunCase is one runnable case with its pre-allocated result slot. It can be
// run once.
type RunCase struct {
	tc     query.TestCase
	result *logger.Result
	exec   func(ctx context.Context)
	used   atomic.Bool
}

// Case returns the name and params of the case.
func (c *RunCase) Case() query.TestCase { return c.tc }

// Result returns the result slot. Its fields are final once Run returns.
func (c *RunCase) Result() *logger.Result { return c.result }

// Run executes the case and returns its finished result. Test failures are
// recorded in the result, not returned; the only error is ErrAlreadyRun.
func (c *RunCase) Run(ctx context.Context) (*logger.Result, error) {
	if !c.used.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	c.exec(ctx)
	return c.result, nil
}

type view[F Fixture] struct {
	group *TestGroup[F]
	keep  func(query.TestCase) bool
}

func (v *view[F]) Iterate(rec *logger.GroupRecorder) iter.Seq[*RunCase] {
	return v.group.iterate(rec, v.keep)
}

func (v *view[F]) Cases() iter.Seq[query.TestCase] {
	return v.group.cases(v.keep)
}

func (v *view[F]) Filter(keep func(query.TestCase) bool) Runnable {
	outer := v.keep
	switch {
	case keep == nil:
		return v
	case outer == nil:
		return &view[F]{group: v.group, keep: keep}
	}
	return &view[F]{group: v.group, keep: func(tc query.TestCase) bool {
		return outer(tc) && keep(tc)
	}}
}

func (v *view[F]) Tests() []string { return v.group.Tests() }

func (v *view[F]) Err() error { return v.group.Err() }
