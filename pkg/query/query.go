// Package query implements case identity and the filter grammar used to
// select test cases:
//
//	filter     := suite [ ':' group [ ':' test [ testfilter ] ] ]
//	testfilter := '' | ':' | ':' json-object | '~' | '~' json-object
//
// A group segment that is not followed by ':' is a prefix over group paths;
// a test segment without a testfilter is a prefix over test names.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giantswarm/cts/pkg/params"
)

// TestCase is one case yielded by a test group: a test name and its
// expanded parameters (null for unparameterized tests).
type TestCase struct {
	Name   string
	Params params.Spec
}

// String renders "name:" or "name:{canonical-params}".
func (tc TestCase) String() string {
	if tc.Params.IsNull() {
		return tc.Name + ":"
	}
	return tc.Name + ":" + tc.Params.Canonical()
}

// CaseID fully identifies a case across suites.
type CaseID struct {
	Suite string
	Group string
	TestCase
}

// String renders the filter that selects exactly this case.
func (id CaseID) String() string {
	return id.Suite + ":" + id.Group + ":" + id.TestCase.String()
}

// ErrMalformedFilter is wrapped by every ParseError.
var ErrMalformedFilter = errors.New("malformed filter")

// ParseError reports a filter string that does not follow the grammar.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed filter %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformedFilter }

// ParamsMatch selects how a filter compares case parameters.
type ParamsMatch int

const (
	// AnyParams matches every case of the test ('' and '~').
	AnyParams ParamsMatch = iota
	// NullParams matches only the unparameterized case (':').
	NullParams
	// ExactParams matches params equal to the filter's (':{...}').
	ExactParams
	// SubsetParams matches params containing the filter's ('~{...}').
	SubsetParams
)

// Filter is a parsed query. The zero Filter is not valid; use Parse.
type Filter struct {
	raw        string
	suite      string
	group      string
	exactGroup bool
	test       string
	exactTest  bool
	match      ParamsMatch
	params     params.Spec
}

// Parse parses one filter string.
func Parse(s string) (Filter, error) {
	f := Filter{raw: s}
	fail := func(offset int, format string, args ...any) (Filter, error) {
		return Filter{}, &ParseError{Input: s, Offset: offset, Reason: fmt.Sprintf(format, args...)}
	}

	suite, rest, hasGroup := strings.Cut(s, ":")
	if err := ValidateName("suite", suite); err != nil {
		return fail(0, "%v", err)
	}
	f.suite = suite
	if !hasGroup {
		return f, nil
	}

	offset := len(suite) + 1
	group, rest, hasTest := strings.Cut(rest, ":")
	if err := ValidateGroupPath(group); err != nil {
		return fail(offset, "%v", err)
	}
	f.group = group
	if !hasTest {
		return f, nil
	}
	f.exactGroup = true

	offset += len(group) + 1
	test, suffix := rest, ""
	if i := strings.IndexAny(rest, ":~"); i >= 0 {
		test, suffix = rest[:i], rest[i:]
	}
	if test != "" {
		if err := ValidateName("test", test); err != nil {
			return fail(offset, "%v", err)
		}
	}
	f.test = test
	if suffix == "" {
		return f, nil
	}
	if test == "" {
		return fail(offset, "a params filter requires a test name")
	}
	f.exactTest = true

	offset += len(test)
	sep, body := suffix[0], suffix[1:]
	if body == "" {
		if sep == ':' {
			f.match = NullParams
		}
		return f, nil
	}
	spec, err := params.ParseSpec(body)
	if err != nil {
		return fail(offset+1, "%v", err)
	}
	f.params = spec
	if sep == ':' {
		f.match = ExactParams
	} else {
		f.match = SubsetParams
	}
	return f, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Filter {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseAll parses every string, stopping at the first malformed one.
func ParseAll(ss []string) (Filters, error) {
	out := make(Filters, 0, len(ss))
	for _, s := range ss {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (f Filter) Suite() string { return f.suite }

// Group returns the group segment: an exact path when ExactGroup is true,
// otherwise a prefix.
func (f Filter) Group() string { return f.group }

// ExactGroup reports whether the group segment was terminated by ':'.
func (f Filter) ExactGroup() bool { return f.exactGroup }

// Test returns the test segment: an exact name when ExactTest is true,
// otherwise a prefix.
func (f Filter) Test() string { return f.test }

func (f Filter) ExactTest() bool { return f.exactTest }

// Params returns the params comparison and the spec it compares against.
func (f Filter) Params() (ParamsMatch, params.Spec) { return f.match, f.params }

// SelectsWholeGroups reports whether the filter selects every case of each
// group it matches.
func (f Filter) SelectsWholeGroups() bool {
	return !f.exactTest && f.test == ""
}

func (f Filter) String() string { return f.raw }

// MatchesGroup reports whether the group at path in suite may contain
// selected cases.
func (f Filter) MatchesGroup(suite, path string) bool {
	if suite != f.suite {
		return false
	}
	if f.exactGroup {
		return path == f.group
	}
	return strings.HasPrefix(path, f.group)
}

// MatchesCase reports whether the filter selects id.
func (f Filter) MatchesCase(id CaseID) bool {
	if !f.MatchesGroup(id.Suite, id.Group) {
		return false
	}
	if f.exactTest {
		if id.Name != f.test {
			return false
		}
	} else if !strings.HasPrefix(id.Name, f.test) {
		return false
	}

	switch f.match {
	case NullParams:
		return id.Params.IsNull()
	case ExactParams:
		return id.Params.Equal(f.params)
	case SubsetParams:
		// an unparameterized case has no options, like {}
		return id.Params.Contains(f.params)
	default:
		return true
	}
}

// Filters is a set of filters combined with OR. An empty set matches nothing;
// callers wanting "everything" handle that case themselves.
type Filters []Filter

func (fs Filters) MatchesGroup(suite, path string) bool {
	for _, f := range fs {
		if f.MatchesGroup(suite, path) {
			return true
		}
	}
	return false
}

func (fs Filters) MatchesCase(id CaseID) bool {
	for _, f := range fs {
		if f.MatchesCase(id) {
			return true
		}
	}
	return false
}

// Strings returns the raw filter strings.
func (fs Filters) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.raw
	}
	return out
}
