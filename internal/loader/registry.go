package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/query"
)

// Registry is an in-memory Source. Groups are listed in the order they were
// added.
type Registry struct {
	mu       sync.RWMutex
	suites   []string
	listings map[string][]GroupDesc
	nodes    map[nodeKey]Node
}

type nodeKey struct {
	suite string
	path  string
}

func NewRegistry() *Registry {
	return &Registry{
		listings: map[string][]GroupDesc{},
		nodes:    map[nodeKey]Node{},
	}
}

// Add registers a node. g may be nil for a documentation-only node such as a
// directory README.
func (r *Registry) Add(suite, path, description string, g group.Runnable) error {
	if err := query.ValidateName("suite", suite); err != nil {
		return err
	}
	if err := query.ValidateGroupPath(path); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := nodeKey{suite: suite, path: path}
	if _, ok := r.nodes[key]; ok {
		return fmt.Errorf("%w: %s:%s", ErrDuplicateGroup, suite, path)
	}
	if _, ok := r.listings[suite]; !ok {
		r.suites = append(r.suites, suite)
	}
	r.listings[suite] = append(r.listings[suite], GroupDesc{Path: path, Description: description})
	r.nodes[key] = Node{Description: description, Group: g}
	return nil
}

// MustAdd is like Add but panics on error. It is meant for static suite
// definitions.
func (r *Registry) MustAdd(suite, path, description string, g group.Runnable) {
	if err := r.Add(suite, path, description, g); err != nil {
		panic(err)
	}
}

func (r *Registry) Suites(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.suites...), nil
}

func (r *Registry) Listing(ctx context.Context, suite string) ([]GroupDesc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.listings[suite]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSuiteNotFound, suite)
	}
	return append([]GroupDesc(nil), listing...), nil
}

func (r *Registry) Import(ctx context.Context, suite, path string) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[nodeKey{suite: suite, path: path}]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s:%s", ErrGroupNotFound, suite, path)
	}
	return node, nil
}
