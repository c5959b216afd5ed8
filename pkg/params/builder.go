package params

import (
	"fmt"
	"iter"
)

// Predicate decides whether a combined spec is kept. It must be pure.
type Predicate func(Spec) bool

type node int

const (
	literalNode node = iota
	optionsNode
	combineNode
	filterNode
	errorNode
)

// Builder is a parameter-set expression: a literal list of specs, the
// choices of one option, a cartesian product of builders, or a filtered
// builder. Builders are immutable values; evaluating one never changes it,
// so the sequence can be walked any number of times with identical results.
// The zero Builder yields nothing.
type Builder struct {
	node     node
	specs    []Spec
	name     string
	choices  []Value
	children []Builder
	keep     Predicate
	err      error
}

// Literal yields the given specs in order. A null spec is treated as {}.
func Literal(specs ...Spec) Builder {
	out := make([]Spec, len(specs))
	for i, s := range specs {
		if s.IsNull() {
			s = Empty()
		}
		out[i] = s
	}
	return Builder{node: literalNode, specs: out}
}

// Options yields one single-option spec {name: choice} per choice. Choices
// are converted with FromGo; a choice that cannot be converted makes the
// builder yield that error.
func Options(name string, choices ...any) Builder {
	values := make([]Value, len(choices))
	for i, c := range choices {
		v, err := FromGo(c)
		if err != nil {
			return Builder{node: errorNode, err: fmt.Errorf("option %q choice %d: %w", name, i, err)}
		}
		values[i] = v
	}
	return Builder{node: optionsNode, name: name, choices: values}
}

// Combine yields the cartesian product of its builders in row-major order:
// the first builder is the outermost loop. Each yielded spec is the merge of
// one spec from every builder; colliding option names stop the iteration with
// ErrKeyCollision. Combine() yields a single empty spec.
func Combine(builders ...Builder) Builder {
	return Builder{node: combineNode, children: append([]Builder(nil), builders...)}
}

// Filter yields the specs of b for which keep returns true.
func Filter(b Builder, keep Predicate) Builder {
	return Builder{node: filterNode, children: []Builder{b}, keep: keep}
}

// Combine is shorthand for Combine(b, others...).
func (b Builder) Combine(others ...Builder) Builder {
	return Combine(append([]Builder{b}, others...)...)
}

// Filter is shorthand for Filter(b, keep).
func (b Builder) Filter(keep Predicate) Builder {
	return Filter(b, keep)
}

// All returns the lazy sequence of specs. An error is yielded at most once
// and ends the sequence.
func (b Builder) All() iter.Seq2[Spec, error] {
	return func(yield func(Spec, error) bool) {
		b.walk(yield)
	}
}

// Collect materialises the sequence.
func (b Builder) Collect() ([]Spec, error) {
	var out []Spec
	for s, err := range b.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// walk reports whether iteration should continue.
func (b Builder) walk(yield func(Spec, error) bool) bool {
	switch b.node {
	case literalNode:
		for _, s := range b.specs {
			if !yield(s, nil) {
				return false
			}
		}
		return true
	case optionsNode:
		for _, c := range b.choices {
			if !yield(Spec{fields: []Field{{Name: b.name, Value: c}}, valid: true}, nil) {
				return false
			}
		}
		return true
	case combineNode:
		return product(b.children, Empty(), yield)
	case filterNode:
		return b.children[0].walk(func(s Spec, err error) bool {
			if err != nil {
				yield(Spec{}, err)
				return false
			}
			if b.keep != nil && !b.keep(s) {
				return true
			}
			return yield(s, nil)
		})
	case errorNode:
		yield(Spec{}, b.err)
		return false
	}
	return true
}

func product(children []Builder, acc Spec, yield func(Spec, error) bool) bool {
	if len(children) == 0 {
		return yield(acc, nil)
	}
	return children[0].walk(func(s Spec, err error) bool {
		if err != nil {
			yield(Spec{}, err)
			return false
		}
		merged, err := acc.Merge(s)
		if err != nil {
			yield(Spec{}, err)
			return false
		}
		return product(children[1:], merged, yield)
	})
}
