// Package unittests is the harness testing itself: each group exercises one
// part of the harness from inside a run, with a fresh Logger per case.
package unittests

import (
	"errors"
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
)

// Fixture adds comparison helpers to the default fixture.
type Fixture struct {
	*group.DefaultFixture
}

func newFixture(rec *logger.CaseRecorder, p params.Spec) *Fixture {
	return &Fixture{DefaultFixture: group.NewDefaultFixture(rec, p)}
}

func newGroup() *group.TestGroup[*Fixture] {
	return group.New(newFixture)
}

// ExpectEqual fails the case when got and want differ.
func (f *Fixture) ExpectEqual(got, want any, what string) bool {
	if assert.ObjectsAreEqual(want, got) {
		return true
	}
	f.Fail(fmt.Sprintf("%s: got %v, want %v", what, got, want))
	return false
}

// ExpectErrorIs fails the case unless err matches target.
func (f *Fixture) ExpectErrorIs(err, target error, what string) bool {
	if err == nil {
		f.Fail(fmt.Sprintf("%s: expected error %v, got none", what, target))
		return false
	}
	return f.Expect(errors.Is(err, target), fmt.Sprintf("%s: expected %v, got %v", what, target, err))
}
