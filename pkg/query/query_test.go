package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/cts/pkg/params"
)

func TestValidateName(t *testing.T) {
	for _, name := range []string{"a", "hello", "with space", "under_score", "ünïcode"} {
		assert.NoError(t, ValidateName("test", name), name)
	}

	assert.ErrorIs(t, ValidateName("test", ""), ErrInvalidName)

	for _, c := range ReservedChars {
		err := ValidateName("test", "a"+string(c)+"b")
		require.Error(t, err, "char %q", c)

		var ne *NameError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, c, ne.Char)
	}
}

func TestValidateGroupPath(t *testing.T) {
	for _, p := range []string{"", "foo", "bar/", "bar/buzz", "a/b/c/"} {
		assert.NoError(t, ValidateGroupPath(p), p)
	}
	for _, p := range []string{"/", "bar//", "a//b", "a:b", "a/b.c"} {
		assert.ErrorIs(t, ValidateGroupPath(p), ErrInvalidName, p)
	}
}

func TestValidateParamValues(t *testing.T) {
	assert.NoError(t, ValidateParamValues(params.Spec{}))
	assert.NoError(t, ValidateParamValues(params.MustSpec(params.F("a", "plain"), params.F("n", 1.5))))
	assert.NoError(t, ValidateParamValues(params.MustSpec(params.F("nested", []any{"a.b"}))), "only top-level strings are checked")
	assert.ErrorIs(t, ValidateParamValues(params.MustSpec(params.F("a", "x:y"))), ErrInvalidName)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in         string
		group      string
		exactGroup bool
		test       string
		exactTest  bool
		match      ParamsMatch
	}{
		{in: "suite1"},
		{in: "suite1:"},
		{in: "suite1:foo", group: "foo"},
		{in: "suite1:bar/", group: "bar/"},
		{in: "suite1::", exactGroup: true},
		{in: "suite1:foo:", group: "foo", exactGroup: true},
		{in: "suite1:foo:he", group: "foo", exactGroup: true, test: "he"},
		{in: "suite1:foo:hello:", group: "foo", exactGroup: true, test: "hello", exactTest: true, match: NullParams},
		{in: "suite1:baz:zed~", group: "baz", exactGroup: true, test: "zed", exactTest: true, match: AnyParams},
		{in: `suite1:baz:zed:{"a":1}`, group: "baz", exactGroup: true, test: "zed", exactTest: true, match: ExactParams},
		{in: `suite1:baz:zed~{"a":1}`, group: "baz", exactGroup: true, test: "zed", exactTest: true, match: SubsetParams},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, "suite1", f.Suite())
			assert.Equal(t, tt.group, f.Group())
			assert.Equal(t, tt.exactGroup, f.ExactGroup())
			assert.Equal(t, tt.test, f.Test())
			assert.Equal(t, tt.exactTest, f.ExactTest())
			match, _ := f.Params()
			assert.Equal(t, tt.match, match)
			assert.Equal(t, tt.in, f.String())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		":foo",
		"su.ite",
		"suite1:a.b",
		"suite1:foo:he-llo",
		"suite1:foo::",
		"suite1:foo:~{}",
		`suite1:foo:hello:{"a":`,
		`suite1:foo:hello:[1]`,
		`suite1:foo:hello~1`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFilter)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, in, pe.Input)
		})
	}
}

func TestParseAll(t *testing.T) {
	fs, err := ParseAll([]string{"a", "b:c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b:c"}, fs.Strings())

	_, err = ParseAll([]string{"a", "b.c"})
	assert.ErrorIs(t, err, ErrMalformedFilter)
}

func TestFilter_MatchesGroup(t *testing.T) {
	paths := []string{"", "foo", "bar/", "bar/buzz", "baz"}
	tests := []struct {
		filter string
		want   []string
	}{
		{filter: "suite1", want: paths},
		{filter: "suite1:", want: paths},
		{filter: "suite1:f", want: []string{"foo"}},
		{filter: "suite1:foo", want: []string{"foo"}},
		{filter: "suite1:foof"},
		{filter: "suite1:ba", want: []string{"bar/", "bar/buzz", "baz"}},
		{filter: "suite1:bar", want: []string{"bar/", "bar/buzz"}},
		{filter: "suite1:bar/", want: []string{"bar/", "bar/buzz"}},
		{filter: "suite1:bar/b", want: []string{"bar/buzz"}},
		{filter: "suite1::", want: []string{""}},
		{filter: "suite1:bar:"},
		{filter: "suite1:bar/:", want: []string{"bar/"}},
		{filter: "suite2"},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f := MustParse(tt.filter)
			var got []string
			for _, p := range paths {
				if f.MatchesGroup("suite1", p) {
					got = append(got, p)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_MatchesCase(t *testing.T) {
	zed := func(p params.Spec) CaseID {
		return CaseID{Suite: "suite1", Group: "baz", TestCase: TestCase{Name: "zed", Params: p}}
	}
	ab2 := zed(params.MustSpec(params.F("a", 1), params.F("b", 2)))
	ab3 := zed(params.MustSpec(params.F("a", 1), params.F("b", 3)))
	null := zed(params.Spec{})

	tests := []struct {
		filter string
		want   []CaseID
	}{
		{filter: "suite1:baz:zed", want: []CaseID{ab2, ab3, null}},
		{filter: "suite1:baz:z", want: []CaseID{ab2, ab3, null}},
		{filter: "suite1:baz:zed:", want: []CaseID{null}},
		{filter: "suite1:baz:zed:{}"},
		{filter: `suite1:baz:zed:{"a":1,"b":2}`, want: []CaseID{ab2}},
		{filter: `suite1:baz:zed:{"b":2,"a":1}`, want: []CaseID{ab2}},
		{filter: `suite1:baz:zed:{"a":1}`},
		{filter: "suite1:baz:zed~", want: []CaseID{ab2, ab3, null}},
		{filter: "suite1:baz:zed~{}", want: []CaseID{ab2, ab3, null}},
		{filter: `suite1:baz:zed~{"a":1}`, want: []CaseID{ab2, ab3}},
		{filter: `suite1:baz:zed~{"b":2,"a":1}`, want: []CaseID{ab2}},
		{filter: `suite1:baz:zed~{"b":2}`, want: []CaseID{ab2}},
		{filter: `suite1:baz:zed~{"a":2}`},
		{filter: `suite1:baz:zed~{"c":3}`},
		{filter: "suite1:baz:ze:"},
		{filter: "suite1:ba:zed"},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f := MustParse(tt.filter)
			var got []CaseID
			for _, id := range []CaseID{ab2, ab3, null} {
				if f.MatchesCase(id) {
					got = append(got, id)
				}
			}
			assert.Equal(t, len(tt.want), len(got))
			for i := range got {
				assert.Equal(t, tt.want[i].String(), got[i].String())
			}
		})
	}
}

func TestFilters_OR(t *testing.T) {
	fs, err := ParseAll([]string{"suite1:foo", "suite1:baz:zed:"})
	require.NoError(t, err)

	assert.True(t, fs.MatchesGroup("suite1", "foo"))
	assert.True(t, fs.MatchesGroup("suite1", "baz"))
	assert.False(t, fs.MatchesGroup("suite1", "bar/"))
	assert.True(t, fs.MatchesCase(CaseID{Suite: "suite1", Group: "baz", TestCase: TestCase{Name: "zed"}}))

	assert.False(t, Filters(nil).MatchesGroup("suite1", "foo"))
}

func TestCaseID_StringRoundTrips(t *testing.T) {
	ids := []CaseID{
		{Suite: "s", Group: "", TestCase: TestCase{Name: "t"}},
		{Suite: "s", Group: "a/b", TestCase: TestCase{Name: "t", Params: params.Empty()}},
		{Suite: "s", Group: "g", TestCase: TestCase{Name: "t", Params: params.MustSpec(params.F("y", "q"), params.F("x", []any{1, 2}))}},
	}
	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			f, err := Parse(id.String())
			require.NoError(t, err)
			assert.True(t, f.MatchesCase(id))
		})
	}
	assert.Equal(t, `s:g:t:{"x":[1,2],"y":"q"}`, ids[2].String())
}
