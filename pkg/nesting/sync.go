package nesting

import (
	"log/slog"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
)

// AbsentValue decides what a synced target holds while no inner cell is
// present. It receives the target's current value and whether this is the
// first absence since the sync started, and returns the value to hold.
type AbsentValue[T any] func(current T, first bool) T

// KeepLast leaves the target's value untouched while absent.
func KeepLast[T any]() AbsentValue[T] {
	return func(current T, _ bool) T {
		return current
	}
}

// Default sets the target to v every time the inner cell becomes absent.
func Default[T any](v T) AbsentValue[T] {
	return func(T, bool) T {
		return v
	}
}

// DefaultOnFirst sets the target to v the first time the inner cell is
// absent and keeps the last value on every later absence.
func DefaultOnFirst[T any](v T) AbsentValue[T] {
	return func(current T, first bool) T {
		if first {
			return v
		}
		return current
	}
}

// Supplied sets the target to fn() every time the inner cell becomes absent.
func Supplied[T any](fn func() T) AbsentValue[T] {
	return func(T, bool) T {
		return fn()
	}
}

// CellSync keeps a caller-owned mutable cell bidirectionally bound to the
// inner cell a nesting currently publishes.
//
// When an inner cell becomes present the target is bound to it and
// immediately takes its value; the target's previous value is discarded.
// When it is left the target is unbound. While absent the target is
// independent: writes to it go nowhere, and its value follows the
// AbsentValue policy.
type CellSync[T any] struct {
	target   cell.MutableReactiveCell[T]
	detector *EdgeDetector[cell.MutableReactiveCell[T]]
	absent   AbsentValue[T]
	logger   *slog.Logger
	name     string

	bound      cell.MutableReactiveCell[T]
	absentSeen bool
}

// NewCellSync wires target to n. A nil policy means KeepLast. Call Start to
// begin syncing.
func NewCellSync[T any](
	n Nesting[cell.MutableReactiveCell[T]],
	target cell.MutableReactiveCell[T],
	absent AbsentValue[T],
	opts ...Option,
) (*CellSync[T], error) {
	if isNil(target) {
		return nil, codedError("N007", ErrMissingTarget, "NewCellSync was called with a nil target cell")
	}
	detector, err := NewEdgeDetector(n, opts...)
	if err != nil {
		return nil, err
	}
	if absent == nil {
		absent = KeepLast[T]()
	}

	o := buildOptions(opts)
	s := &CellSync[T]{
		target:   target,
		detector: detector,
		absent:   absent,
		logger:   o.logger,
		name:     o.name,
	}
	detector.
		OnEnter(s.enter).
		OnLeave(s.leave).
		OnPresenceChange(s.presenceChanged)
	return s, nil
}

// Start binds the target to the current inner cell, or applies the absence
// policy if there is none.
func (s *CellSync[T]) Start() error {
	return s.detector.Start()
}

// Stop unbinds the target, stops the detector and disposes the nesting. The
// target keeps its value.
func (s *CellSync[T]) Stop() {
	if s.bound != nil {
		s.target.UnbindBidirectional(s.bound)
		s.bound = nil
	}
	s.detector.Stop()
}

// Bound returns the inner cell the target is currently bound to.
func (s *CellSync[T]) Bound() (cell.MutableReactiveCell[T], bool) {
	return s.bound, s.bound != nil
}

// Detector returns the underlying edge detector, for registering further
// callbacks before Start.
func (s *CellSync[T]) Detector() *EdgeDetector[cell.MutableReactiveCell[T]] {
	return s.detector
}

func (s *CellSync[T]) enter(inner cell.MutableReactiveCell[T]) {
	s.target.BindBidirectional(inner)
	s.bound = inner
	s.logger.Debug("cell sync bound", "nesting", s.name)
}

func (s *CellSync[T]) leave(inner cell.MutableReactiveCell[T]) {
	s.target.UnbindBidirectional(inner)
	if cell.Same(s.bound, inner) {
		s.bound = nil
	}
	s.logger.Debug("cell sync unbound", "nesting", s.name)
}

func (s *CellSync[T]) presenceChanged(_, present bool) {
	if present {
		return
	}
	first := !s.absentSeen
	s.absentSeen = true
	s.target.SetValue(s.absent(s.target.Value(), first))
}
