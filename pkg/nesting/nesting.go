package nesting

import (
	"reflect"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/opt"
)

// Nesting publishes the currently reachable inner cell of a chain.
type Nesting[O any] interface {
	// Inner returns a read-only cell holding the inner cell, or None when
	// the chain is broken somewhere. Only the identity of the inner cell is
	// published; read or bind to it for its value.
	Inner() cell.ReactiveCell[opt.Option[O]]

	// Dispose releases every subscription the nesting holds. The inner cell
	// keeps its last value and never changes again.
	Dispose()
}

// New builds the nesting for outer and steps. Without steps the outer cell
// is itself the inner cell and a Shallow nesting is returned; in that case
// outer must be an O.
func New[T, O any](outer cell.ReactiveCell[T], steps []Step, opts ...Option) (Nesting[O], error) {
	if len(steps) == 0 {
		if isNil(outer) {
			return nil, codedError("N002", ErrMissingOuter, "New was called with a nil outer cell")
		}
		o, ok := any(outer).(O)
		if !ok {
			return nil, codedError("N005", ErrLeafType,
				"without steps the outer cell %T is the inner cell, but the nesting publishes %s", outer, reflect.TypeFor[O]())
		}
		s, err := NewShallow(o)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	d, err := NewDeep[T, O](outer, steps, opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Resolve walks the chain once, without subscribing, and returns the inner
// cell it reaches. It is the reference a Deep nesting converges to.
func Resolve[T, O any](outer cell.ReactiveCell[T], steps []Step) (opt.Option[O], error) {
	if isNil(outer) {
		return opt.None[O](), codedError("N002", ErrMissingOuter, "Resolve was called with a nil outer cell")
	}

	current := linkOf(outer)
	for i, s := range steps {
		if s.IsZero() {
			return opt.None[O](), codedError("N003", ErrMissingStep, "step %d of %d is nil", i, len(steps))
		}
		if !current.present() {
			return opt.None[O](), nil
		}
		current = s.apply(current.value())
	}
	if !current.present() {
		return opt.None[O](), nil
	}

	o, ok := current.ident.(O)
	if !ok {
		return opt.None[O](), codedError("N005", ErrLeafType,
			"the inner cell is a %T, not a %s", current.ident, reflect.TypeFor[O]())
	}
	return opt.Some(o), nil
}

// sameInner compares published values by the identity of the inner cell.
func sameInner[O any](a, b opt.Option[O]) bool {
	av, aok := a.Get()
	bv, bok := b.Get()
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	return cell.Same(av, bv)
}
