package nesting

import (
	"reflect"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
)

// Step is one nesting step: it maps the value held at one level to the cell
// of the next level.
//
// Steps are type-erased so that chains of any length can be held in a single
// slice. Values travel between levels as any; Next and NextCell record the
// static types at each end so that NewDeep can reject chains whose types
// cannot line up, and each step checks the dynamic type of the value it
// receives. Nothing else in the package deals in erased types.
//
// A step must be a pure function of its input. It is never called for an
// absent level. Returning nil, including a typed nil pointer, makes the next
// level absent.
type Step struct {
	in  reflect.Type
	out reflect.Type

	apply func(v any) link
}

// Next builds a step from a function returning the next level's cell.
func Next[V, N any](fn func(V) cell.ReactiveCell[N]) Step {
	if fn == nil {
		return Step{}
	}
	return Step{
		in:  reflect.TypeFor[V](),
		out: reflect.TypeFor[N](),
		apply: func(v any) link {
			return linkOf(fn(narrow[V](v)))
		},
	}
}

// NextCell builds a step from a function returning a concrete *cell.Cell.
func NextCell[V, N any](fn func(V) *cell.Cell[N]) Step {
	if fn == nil {
		return Step{}
	}
	return Step{
		in:  reflect.TypeFor[V](),
		out: reflect.TypeFor[N](),
		apply: func(v any) link {
			return linkOf[N](fn(narrow[V](v)))
		},
	}
}

// IsZero reports whether s was never built.
func (s Step) IsZero() bool {
	return s.apply == nil
}

// String describes the step's types.
func (s Step) String() string {
	if s.IsZero() {
		return "Step(<nil>)"
	}
	return "Step(" + s.in.String() + " -> " + s.out.String() + ")"
}

// narrow converts an erased level value back to the step's input type.
func narrow[V any](v any) V {
	if typed, ok := v.(V); ok {
		return typed
	}

	var zero V
	if v == nil && canBeNil(reflect.TypeFor[V]()) {
		return zero
	}
	panic(codedError("N004", ErrChainTypes,
		"a step expecting %s received a value of type %T", reflect.TypeFor[V](), v))
}

// link is the erased handle of one level's cell. The zero link is an absent
// cell.
type link struct {
	// ident is the cell as the step produced it. It is compared by identity
	// and handed out when the level is the leaf.
	ident any

	value     func() any
	subscribe func(fn func()) cell.Unsubscribe
}

func linkOf[T any](c cell.ReactiveCell[T]) link {
	if isNil(c) {
		return link{}
	}
	return link{
		ident: c,
		value: func() any { return c.Value() },
		subscribe: func(fn func()) cell.Unsubscribe {
			return c.Subscribe(func(_, _ T) { fn() })
		},
	}
}

func (l link) present() bool {
	return l.ident != nil
}

func (l link) same(other link) bool {
	return cell.Same(l.ident, other.ident)
}

// checkChain verifies that each level's value type can feed the next step.
// A pair is accepted unless it provably cannot work: when one side is an
// interface the concrete side may satisfy it at runtime, and narrow catches
// the cases that don't.
func checkChain(outer reflect.Type, steps []Step) error {
	from := outer
	for i, s := range steps {
		if !from.AssignableTo(s.in) && !s.in.AssignableTo(from) {
			return codedError("N004", ErrChainTypes,
				"level %d holds %s but step %d expects %s", i, from, i, s.in)
		}
		from = s.out
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if canBeNil(rv.Type()) {
		return rv.IsNil()
	}
	return false
}

func canBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}
