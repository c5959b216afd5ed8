package group

import (
	"context"
	"fmt"
	"strings"

	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
)

// Fixture is the per-case object handed to a test body. Every case gets a
// fresh fixture bound to its recorder and parameters.
type Fixture interface {
	Params() params.Spec
	Recorder() *logger.CaseRecorder
	Log(msg string)
	OK(msg ...string)
	Warn(msg ...string)
	Fail(msg ...string)
	Expect(cond bool, msg ...string) bool
	ShouldError(fn func() error, msg ...string) bool
	ShouldPanic(fn func(), msg ...string) bool
}

// Initializer is implemented by fixtures that need setup before the body
// runs. An Init error fails the case and skips the body.
type Initializer interface {
	Init(ctx context.Context) error
}

// Finalizer is implemented by fixtures that need teardown. Finalize runs
// after the body, including when the body failed or panicked.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// NewFixture builds the fixture of one case.
type NewFixture[F Fixture] func(rec *logger.CaseRecorder, p params.Spec) F

// DefaultFixture is the basic Fixture. Domain fixtures embed it and add
// helpers.
type DefaultFixture struct {
	rec    *logger.CaseRecorder
	params params.Spec
}

// NewDefaultFixture is the NewFixture of groups created with NewDefault.
func NewDefaultFixture(rec *logger.CaseRecorder, p params.Spec) *DefaultFixture {
	return &DefaultFixture{rec: rec, params: p}
}

func (f *DefaultFixture) Params() params.Spec { return f.params }

func (f *DefaultFixture) Recorder() *logger.CaseRecorder { return f.rec }

func (f *DefaultFixture) Log(msg string) { f.rec.Log(msg) }

// Logf logs a formatted message.
func (f *DefaultFixture) Logf(format string, args ...any) {
	f.rec.Log(fmt.Sprintf(format, args...))
}

// OK logs "OK" or "OK: msg".
func (f *DefaultFixture) OK(msg ...string) {
	f.rec.Log(withPrefix("OK", msg))
}

func (f *DefaultFixture) Warn(msg ...string) { f.rec.Warn(strings.Join(msg, " ")) }

func (f *DefaultFixture) Fail(msg ...string) { f.rec.Fail(strings.Join(msg, " ")) }

// Expect fails the case unless cond holds, and returns cond.
func (f *DefaultFixture) Expect(cond bool, msg ...string) bool {
	if !cond {
		f.rec.Fail(strings.Join(msg, " "))
	}
	return cond
}

// ShouldError fails the case unless fn returns an error.
func (f *DefaultFixture) ShouldError(fn func() error, msg ...string) bool {
	err := fn()
	if err == nil {
		f.rec.Fail(withPrefix("expected an error", msg))
		return false
	}
	return true
}

// ShouldPanic fails the case unless fn panics.
func (f *DefaultFixture) ShouldPanic(fn func(), msg ...string) (panicked bool) {
	defer func() {
		if recover() != nil {
			panicked = true
			return
		}
		f.rec.Fail(withPrefix("expected a panic", msg))
	}()
	fn()
	return false
}

func withPrefix(prefix string, msg []string) string {
	if len(msg) == 0 {
		return prefix
	}
	return prefix + ": " + strings.Join(msg, " ")
}
