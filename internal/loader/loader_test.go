package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/params"
	"github.com/giantswarm/cts/pkg/query"
)

func noop(ctx context.Context, t *group.DefaultFixture) error {
	t.OK()
	return nil
}

func fooGroup() *group.TestGroup[*group.DefaultFixture] {
	g := group.NewDefault()
	g.Test("hello", noop)
	g.Test("bonjour", noop)
	g.Test("hola", noop)
	return g
}

func buzzGroup() *group.TestGroup[*group.DefaultFixture] {
	g := group.NewDefault()
	g.Test("zap", noop)
	return g
}

func bazGroup() *group.TestGroup[*group.DefaultFixture] {
	g := group.NewDefault()
	g.Test("zed", noop).Params(params.Literal(
		params.MustSpec(params.F("a", 1), params.F("b", 2)),
		params.MustSpec(params.F("a", 1), params.F("b", 3)),
	))
	return g
}

func foofGroup() *group.TestGroup[*group.DefaultFixture] {
	g := group.NewDefault()
	g.Test("blah", noop)
	g.Test("bleh", noop).Params(params.Literal(params.Empty()))
	return g
}

// newSuites mirrors a small on-disk layout: suite1 has a README at its root
// and under bar/, suite2 has one group.
func newSuites(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Add("suite1", "", "desc 1a", nil))
	require.NoError(t, r.Add("suite1", "foo", "desc 1b", fooGroup()))
	require.NoError(t, r.Add("suite1", "bar/", "desc 1c", nil))
	require.NoError(t, r.Add("suite1", "bar/buzz", "desc 1d", buzzGroup()))
	require.NoError(t, r.Add("suite1", "baz", "desc 1e", bazGroup()))
	require.NoError(t, r.Add("suite2", "", "desc 2a", nil))
	require.NoError(t, r.Add("suite2", "foof", "desc 2b", foofGroup()))
	return r
}

func load(t *testing.T, filters ...string) ([]Entry, error) {
	t.Helper()
	fs, err := query.ParseAll(filters)
	require.NoError(t, err)
	return New(newSuites(t)).Load(context.Background(), fs)
}

func TestLoad_GroupSelection(t *testing.T) {
	tests := []struct {
		filter string
		paths  []string
	}{
		{filter: "suite1", paths: []string{"", "foo", "bar/", "bar/buzz", "baz"}},
		{filter: "suite1:", paths: []string{"", "foo", "bar/", "bar/buzz", "baz"}},
		{filter: "suite1:f", paths: []string{"foo"}},
		{filter: "suite1:fo", paths: []string{"foo"}},
		{filter: "suite1:foo", paths: []string{"foo"}},
		{filter: "suite1:foof"},
		{filter: "suite1:ba", paths: []string{"bar/", "bar/buzz", "baz"}},
		{filter: "suite1:bar", paths: []string{"bar/", "bar/buzz"}},
		{filter: "suite1:bar/", paths: []string{"bar/", "bar/buzz"}},
		{filter: "suite1:bar/b", paths: []string{"bar/buzz"}},
		{filter: "suite2:foof", paths: []string{"foof"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			entries, err := load(t, tt.filter)
			require.NoError(t, err)

			var paths []string
			for _, e := range entries {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestLoad_Descriptions(t *testing.T) {
	entries, err := load(t, "suite1")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "desc 1a", entries[0].Node.Description)
	assert.Nil(t, entries[0].Node.Group)
	assert.Equal(t, "desc 1b", entries[1].Node.Description)
	assert.NotNil(t, entries[1].Node.Group)
}

func TestLoad_RejectsExactGroupsWithoutTests(t *testing.T) {
	_, err := load(t, "suite1::")
	assert.ErrorIs(t, err, ErrNoTestGroup)

	_, err = load(t, "suite1:bar:")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = load(t, "suite1:bar/:")
	assert.ErrorIs(t, err, ErrNoTestGroup)
}

func TestLoad_UnknownSuite(t *testing.T) {
	_, err := load(t, "nosuite")
	assert.ErrorIs(t, err, ErrSuiteNotFound)
}

func TestLoad_CaseSelection(t *testing.T) {
	tests := []struct {
		filter string
		cases  int
	}{
		{filter: "suite1:bar/buzz:", cases: 1},
		{filter: "suite1:baz:", cases: 2},
		{filter: "suite1:foo:", cases: 3},
		{filter: "suite1:foo:h", cases: 2},
		{filter: "suite1:foo:he", cases: 1},
		{filter: "suite1:foo:hello", cases: 1},
		{filter: "suite1:baz:zed", cases: 2},
		{filter: "suite1:foo:hello:", cases: 1},
		{filter: "suite1:baz:zed:"},
		{filter: "suite1:baz:zed:{}"},
		{filter: `suite1:baz:zed:{"a":1,"b":2}`, cases: 1},
		{filter: `suite1:baz:zed:{"b":2,"a":1}`, cases: 1},
		{filter: "suite1:baz:zed~", cases: 2},
		{filter: "suite1:baz:zed~{}", cases: 2},
		{filter: `suite1:baz:zed~{"a":1}`, cases: 2},
		{filter: `suite1:baz:zed~{"a":1,"b":2}`, cases: 1},
		{filter: `suite1:baz:zed~{"b":2,"a":1}`, cases: 1},
		{filter: `suite1:baz:zed~{"b":2}`, cases: 1},
		{filter: `suite1:baz:zed~{"a":2}`},
		{filter: `suite1:baz:zed~{"c":3}`},
		{filter: "suite2:foof:bleh:"},
		{filter: "suite2:foof:bleh:{}", cases: 1},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			entries, err := load(t, tt.filter)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.cases, CountCases(entries))
		})
	}
}

func TestLoad_FiltersAreORed(t *testing.T) {
	entries, err := load(t, "suite1:foo:hello:", "suite1:foo:hola:", "suite1:baz")
	require.NoError(t, err)
	require.Len(t, entries, 2, "foo is listed once")
	assert.Equal(t, "foo", entries[0].Path)
	assert.Equal(t, 2, CountCases(entries[:1]))
	assert.Equal(t, 4, CountCases(entries))
}

func TestLoad_NoFiltersLoadsEverything(t *testing.T) {
	entries, err := New(newSuites(t), WithImportConcurrency(2)).Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
	assert.Equal(t, 3+1+2+2, CountCases(entries))
}

func TestExclude(t *testing.T) {
	entries, err := load(t, "suite1")
	require.NoError(t, err)

	excluded := Exclude(entries, query.Filters{query.MustParse("suite1:foo:hello:"), query.MustParse("suite1:baz")})
	assert.Equal(t, 2+1, CountCases(excluded))
	assert.Equal(t, 3+1+2, CountCases(entries), "input entries are not modified")
	assert.Len(t, Exclude(entries, nil), 5)
}

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("s", "g", "", nil))
	assert.ErrorIs(t, r.Add("s", "g", "", nil), ErrDuplicateGroup)
	assert.ErrorIs(t, r.Add("bad.suite", "g", "", nil), query.ErrInvalidName)
	assert.ErrorIs(t, r.Add("s", "a:b", "", nil), query.ErrInvalidName)

	_, err := r.Import(context.Background(), "s", "missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	suites, err := r.Suites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, suites)
}
