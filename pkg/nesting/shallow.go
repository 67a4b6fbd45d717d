package nesting

import (
	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/opt"
)

// Shallow is the nesting of a chain without steps: the outer cell is the
// inner cell, forever. It subscribes to nothing.
type Shallow[O any] struct {
	inner cell.ReactiveCell[opt.Option[O]]
}

// NewShallow returns a nesting whose inner cell is always outer.
func NewShallow[O any](outer O) (*Shallow[O], error) {
	if isNil(outer) {
		return nil, codedError("N002", ErrMissingOuter, "NewShallow was called with a nil outer cell")
	}
	return &Shallow[O]{
		inner: cell.ReadOnly[opt.Option[O]](cell.New(opt.Some(outer))),
	}, nil
}

// Inner returns a cell that always holds Some(outer).
func (s *Shallow[O]) Inner() cell.ReactiveCell[opt.Option[O]] {
	return s.inner
}

// Dispose is a no-op.
func (s *Shallow[O]) Dispose() {}
