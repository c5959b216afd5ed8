// Package runner executes loaded test groups and classifies their results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/cts/internal/clock"
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/logging"
	"github.com/giantswarm/cts/pkg/query"
)

// ErrNoCases is returned when the entries enumerate no case at all.
var ErrNoCases = errors.New("found no tests")

// RegistrationError reports a group whose tests were registered incorrectly.
// Nothing runs when a selected group has one.
type RegistrationError struct {
	Suite string
	Path  string
	Err   error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("invalid test group %s:%s: %v", e.Suite, e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Observer receives progress events. CaseStarted and CaseFinished are called
// concurrently from the goroutines running the cases.
type Observer interface {
	RunStarted(runID string, total int)
	CaseStarted(id query.CaseID)
	CaseFinished(id query.CaseID, result logger.Result)
}

// CaseReport is the final state of one case.
type CaseReport struct {
	ID     query.CaseID
	Result logger.Result
}

// Summary classifies the cases of a run by final status, in enumeration
// order.
type Summary struct {
	RunID    string
	Passed   []CaseReport
	Warned   []CaseReport
	Failed   []CaseReport
	Duration time.Duration
}

// Total returns the number of cases run.
func (s *Summary) Total() int {
	return len(s.Passed) + len(s.Warned) + len(s.Failed)
}

// OK reports whether every case passed without warnings.
func (s *Summary) OK() bool {
	return len(s.Warned) == 0 && len(s.Failed) == 0
}

// Runner runs cases concurrently.
type Runner struct {
	concurrency int
	observer    Observer
	clock       clock.Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds the number of cases running at once. Zero or less
// means no bound.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func New(opts ...Option) *Runner {
	r := &Runner{clock: clock.Real{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type plannedCase struct {
	id  query.CaseID
	run *group.RunCase
}

// Run records and runs every case of entries into log. All cases are
// enumerated, and their result slots allocated, before the first one starts;
// they then run concurrently and Run returns once all have finished.
func (r *Runner) Run(ctx context.Context, log *logger.Logger, entries []loader.Entry) (*Summary, error) {
	for _, e := range entries {
		if e.Node.Group == nil {
			continue
		}
		if err := e.Node.Group.Err(); err != nil {
			return nil, &RegistrationError{Suite: e.Suite, Path: e.Path, Err: err}
		}
	}

	var plan []plannedCase
	for _, e := range entries {
		if e.Node.Group == nil {
			continue
		}
		_, rec := log.Record(e.Path)
		for rc := range e.Node.Group.Iterate(rec) {
			plan = append(plan, plannedCase{
				id:  query.CaseID{Suite: e.Suite, Group: e.Path, TestCase: rc.Case()},
				run: rc,
			})
		}
	}
	if len(plan) == 0 {
		return nil, ErrNoCases
	}

	runID := uuid.NewString()
	logging.Info("Runner", "run %s: %d cases from %d entries", runID, len(plan), len(entries))
	if r.observer != nil {
		r.observer.RunStarted(runID, len(plan))
	}

	start := r.clock.Now()
	results := make([]logger.Result, len(plan))
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, pc := range plan {
		g.Go(func() error {
			if r.observer != nil {
				r.observer.CaseStarted(pc.id)
			}
			res, err := pc.run.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", pc.id, err)
			}
			results[i] = *res
			logging.Debug("Runner", "%s: %s", pc.id, res.Status)
			if r.observer != nil {
				r.observer.CaseFinished(pc.id, results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Error("Runner", err, "run %s aborted", runID)
		return nil, err
	}

	summary := &Summary{RunID: runID, Duration: clock.Since(r.clock, start)}
	for i, pc := range plan {
		report := CaseReport{ID: pc.id, Result: results[i]}
		switch results[i].Status {
		case logger.StatusPass:
			summary.Passed = append(summary.Passed, report)
		case logger.StatusWarn:
			summary.Warned = append(summary.Warned, report)
		default:
			summary.Failed = append(summary.Failed, report)
		}
	}
	logging.Info("Runner", "run %s finished in %s: %d passed, %d warned, %d failed",
		runID, summary.Duration, len(summary.Passed), len(summary.Warned), len(summary.Failed))
	return summary, nil
}
