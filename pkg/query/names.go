package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giantswarm/cts/pkg/params"
)

// ReservedChars may not appear in suite, group or test names, nor in
// top-level string option values, because the filter grammar uses them.
const ReservedChars = "\"`~@#$+=\\|!^&*[]<>{}-',.:/"

// ErrInvalidName is wrapped by every NameError.
var ErrInvalidName = errors.New("invalid name")

// NameError reports a name that cannot be addressed by a filter.
type NameError struct {
	Kind string // "suite", "group", "test" or "param"
	Name string
	// Char is the first reserved character found, zero for empty names.
	Char rune
}

func (e *NameError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("invalid %s name %q: must not be empty", e.Kind, e.Name)
	}
	return fmt.Sprintf("invalid %s name %q: reserved character %q", e.Kind, e.Name, e.Char)
}

func (e *NameError) Unwrap() error { return ErrInvalidName }

// ValidateName checks a suite or test name, or a single group path segment.
func ValidateName(kind, name string) error {
	if name == "" {
		return &NameError{Kind: kind, Name: name}
	}
	if i := strings.IndexAny(name, ReservedChars); i >= 0 {
		return &NameError{Kind: kind, Name: name, Char: []rune(name[i:])[0]}
	}
	return nil
}

// ValidateGroupPath checks a group path. The empty path is the root group;
// otherwise segments are separated by '/' and a single trailing '/' is
// allowed (directory-style documentation nodes).
func ValidateGroupPath(path string) error {
	if path == "" {
		return nil
	}
	for _, seg := range strings.Split(strings.TrimSuffix(path, "/"), "/") {
		if err := ValidateName("group", seg); err != nil {
			ne := err.(*NameError)
			ne.Name = path
			return ne
		}
	}
	return nil
}

// ValidateParamValues checks that no top-level string option value contains a
// reserved character, so every case stays addressable by a filter.
func ValidateParamValues(spec params.Spec) error {
	for _, f := range spec.Fields() {
		s, ok := f.Value.AsString()
		if !ok {
			continue
		}
		if i := strings.IndexAny(s, ReservedChars); i >= 0 {
			return &NameError{Kind: "param", Name: f.Name + "=" + s, Char: []rune(s[i:])[0]}
		}
	}
	return nil
}
