// Package loader resolves filters against suite listings and imports the
// selected groups.
package loader

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logging"
	"github.com/giantswarm/cts/pkg/query"
)

var (
	ErrSuiteNotFound  = errors.New("suite not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrNoTestGroup    = errors.New("group has no tests")
	ErrDuplicateGroup = errors.New("group already registered")
)

// GroupDesc is one entry of a suite listing.
type GroupDesc struct {
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Node is an imported listing entry. Group is nil for documentation nodes.
type Node struct {
	Description string
	Group       group.Runnable
}

// Source provides suites, their listings and the groups behind them.
type Source interface {
	Suites(ctx context.Context) ([]string, error)
	Listing(ctx context.Context, suite string) ([]GroupDesc, error)
	Import(ctx context.Context, suite, path string) (Node, error)
}

// Entry is one selected listing entry. When the selecting filters narrow the
// cases, Node.Group is a filtered view of the imported group.
type Entry struct {
	Suite string
	Path  string
	Node  Node
}

// Loader loads entries from a Source.
type Loader struct {
	source      Source
	concurrency int
}

// Option configures a Loader.
type Option func(*Loader)

// WithImportConcurrency bounds the number of concurrent imports. Zero or less
// means unbounded.
func WithImportConcurrency(n int) Option {
	return func(l *Loader) { l.concurrency = n }
}

func New(source Source, opts ...Option) *Loader {
	l := &Loader{source: source}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type selection struct {
	suite   string
	desc    GroupDesc
	filters query.Filters
	whole   bool
	exact   bool
}

// Load returns the listing entries selected by filters, in listing order per
// filter and without duplicates. Without filters every entry of every suite
// is returned. A filter naming an exact group fails with ErrGroupNotFound
// when the suite has no such entry and with ErrNoTestGroup when the entry has
// no tests.
func (l *Loader) Load(ctx context.Context, filters query.Filters) ([]Entry, error) {
	selected, err := l.selectGroups(ctx, filters)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}
	for i, sel := range selected {
		g.Go(func() error {
			node, err := l.source.Import(gctx, sel.suite, sel.desc.Path)
			if err != nil {
				return fmt.Errorf("import %s:%s: %w", sel.suite, sel.desc.Path, err)
			}
			nodes[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(selected))
	for i, sel := range selected {
		node := nodes[i]
		if node.Description == "" {
			node.Description = sel.desc.Description
		}
		if node.Group == nil {
			if sel.exact {
				return nil, fmt.Errorf("%w: %s:%s", ErrNoTestGroup, sel.suite, sel.desc.Path)
			}
		} else if !sel.whole {
			suite, path, fs := sel.suite, sel.desc.Path, sel.filters
			node.Group = node.Group.Filter(func(tc query.TestCase) bool {
				return fs.MatchesCase(query.CaseID{Suite: suite, Group: path, TestCase: tc})
			})
		}
		entries = append(entries, Entry{Suite: sel.suite, Path: sel.desc.Path, Node: node})
	}

	logging.Debug("Loader", "loaded %d entries for filters %v", len(entries), filters.Strings())
	return entries, nil
}

func (l *Loader) selectGroups(ctx context.Context, filters query.Filters) ([]*selection, error) {
	listings := map[string][]GroupDesc{}
	listing := func(suite string) ([]GroupDesc, error) {
		if ls, ok := listings[suite]; ok {
			return ls, nil
		}
		ls, err := l.source.Listing(ctx, suite)
		if err != nil {
			return nil, err
		}
		listings[suite] = ls
		return ls, nil
	}

	var out []*selection
	if len(filters) == 0 {
		suites, err := l.source.Suites(ctx)
		if err != nil {
			return nil, err
		}
		for _, suite := range suites {
			ls, err := listing(suite)
			if err != nil {
				return nil, err
			}
			for _, desc := range ls {
				out = append(out, &selection{suite: suite, desc: desc, whole: true})
			}
		}
		return out, nil
	}

	index := map[nodeKey]*selection{}
	for _, f := range filters {
		ls, err := listing(f.Suite())
		if err != nil {
			return nil, err
		}
		matched := false
		for _, desc := range ls {
			if !f.MatchesGroup(f.Suite(), desc.Path) {
				continue
			}
			matched = true
			key := nodeKey{suite: f.Suite(), path: desc.Path}
			sel, ok := index[key]
			if !ok {
				sel = &selection{suite: f.Suite(), desc: desc}
				index[key] = sel
				out = append(out, sel)
			}
			sel.filters = append(sel.filters, f)
			sel.whole = sel.whole || f.SelectsWholeGroups()
			sel.exact = sel.exact || f.ExactGroup()
		}
		if f.ExactGroup() && !matched {
			return nil, fmt.Errorf("%w: %s:%s", ErrGroupNotFound, f.Suite(), f.Group())
		}
		logging.Debug("Loader", "filter %s matched group entries: %t", f, matched)
	}
	return out, nil
}

// Exclude drops the cases selected by any of the exclude filters.
func Exclude(entries []Entry, exclude query.Filters) []Entry {
	if len(exclude) == 0 {
		return entries
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Node.Group != nil && exclude.MatchesGroup(e.Suite, e.Path) {
			suite, path := e.Suite, e.Path
			e.Node.Group = e.Node.Group.Filter(func(tc query.TestCase) bool {
				return !exclude.MatchesCase(query.CaseID{Suite: suite, Group: path, TestCase: tc})
			})
		}
		out[i] = e
	}
	return out
}

// CountCases returns the number of cases the entries will run.
func CountCases(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Node.Group == nil {
			continue
		}
		for range e.Node.Group.Cases() {
			n++
		}
	}
	return n
}
