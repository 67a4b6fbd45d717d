package nesting

import (
	"errors"
	"log/slog"
	"reflect"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/opt"
)

// marker values are never produced by a cell, so they compare unequal to
// every real value.
type marker struct {
	name string
}

var (
	// initialValue seeds level 0 so the first pass always walks it.
	initialValue = &marker{name: "initial"}

	// absentValue is the tracked value of an absent level.
	absentValue = &marker{name: "absent"}
)

// level is the tracked state of one chain level.
type level struct {
	cell        link
	value       any
	unsubscribe cell.Unsubscribe
}

// LevelState is a snapshot of one tracked level.
type LevelState struct {
	Level int

	// Present reports whether the level currently has a cell.
	Present bool

	// Cell is the tracked cell, or nil when absent.
	Cell any

	// Value is the last value seen in Cell, or nil when absent.
	Value any

	// Subscribed reports whether the level holds a live subscription.
	Subscribed bool
}

// Deep is the nesting of a chain with one or more steps.
//
// It tracks one cell, one value and one subscription per level above the
// leaf. When a level's cell reports a change, the chain is walked downward
// from that level only until a level's value turns out to be unchanged;
// since a level's cell is a pure function of the previous level's value,
// nothing below an unchanged value can have changed either.
type Deep[O any] struct {
	name     string
	logger   *slog.Logger
	observer Observer

	steps  []Step
	levels []level

	inner *cell.Cell[opt.Option[O]]
	view  cell.ReactiveCell[opt.Option[O]]

	disposed bool
}

// NewDeep builds the nesting of outer through steps and computes the current
// inner cell.
func NewDeep[T, O any](outer cell.ReactiveCell[T], steps []Step, opts ...Option) (*Deep[O], error) {
	if isNil(outer) {
		return nil, codedError("N002", ErrMissingOuter, "NewDeep was called with a nil outer cell")
	}
	if len(steps) == 0 {
		return nil, codedError("N001", ErrEmptyChain, "NewDeep needs at least one step; use NewShallow for the outer cell itself")
	}
	for i, s := range steps {
		if s.IsZero() {
			return nil, codedError("N003", ErrMissingStep, "step %d of %d is nil", i, len(steps))
		}
	}
	if err := checkChain(reflect.TypeFor[T](), steps); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	inner := cell.New(opt.None[O]()).WithEquals(sameInner[O])
	d := &Deep[O]{
		name:     o.name,
		logger:   o.logger,
		observer: o.observer,
		steps:    append([]Step(nil), steps...),
		levels:   make([]level, len(steps)),
		inner:    inner,
		view:     cell.ReadOnly[opt.Option[O]](inner),
	}

	for i := range d.levels {
		d.levels[i].value = absentValue
	}
	d.levels[0].value = initialValue
	d.levels[0].cell = linkOf(outer)
	d.levels[0].unsubscribe = d.levels[0].cell.subscribe(d.listener(0))

	if err := d.initialize(); err != nil {
		d.Dispose()
		return nil, err
	}
	return d, nil
}

// initialize runs the first pass. Type errors found while walking the chain
// for the first time are returned; any other panic from a step propagates.
func (d *Deep[O]) initialize() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok && (errors.Is(e, ErrLeafType) || errors.Is(e, ErrChainTypes)) {
			err = e
			return
		}
		panic(r)
	}()

	d.update(0)
	return nil
}

// Inner returns the read-only cell holding the current inner cell.
func (d *Deep[O]) Inner() cell.ReactiveCell[opt.Option[O]] {
	return d.view
}

// Depth returns the number of steps in the chain.
func (d *Deep[O]) Depth() int {
	return len(d.steps)
}

// Name returns the name set with WithName.
func (d *Deep[O]) Name() string {
	return d.name
}

// Levels returns a snapshot of the tracked state of every level above the
// leaf, outermost first.
func (d *Deep[O]) Levels() []LevelState {
	out := make([]LevelState, len(d.levels))
	for i, l := range d.levels {
		state := LevelState{
			Level:      i,
			Present:    l.cell.present(),
			Cell:       l.cell.ident,
			Subscribed: l.unsubscribe != nil,
		}
		if _, isMarker := l.value.(*marker); !isMarker {
			state.Value = l.value
		}
		out[i] = state
	}
	return out
}

// Dispose drops every level subscription.
func (d *Deep[O]) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true

	for i := range d.levels {
		if d.levels[i].unsubscribe != nil {
			d.levels[i].unsubscribe()
			d.levels[i].unsubscribe = nil
		}
	}
	d.logger.Debug("nesting disposed", "nesting", d.name)
}

func (d *Deep[O]) listener(lvl int) func() {
	return func() {
		if d.disposed {
			return
		}
		d.update(lvl)
	}
}

// update propagates a change of the cell tracked at start.
//
// It is a loop rather than a chain of callbacks, so stopping early is a
// break and stack depth does not grow with chain length. A panicking step
// leaves the levels already walked updated and propagates to whoever wrote
// the upstream cell.
func (d *Deep[O]) update(start int) {
	pass := d.observer.BeginPass(PassInfo{Nesting: d.name, StartLevel: start, Depth: len(d.steps)})
	result := PassResult{StopLevel: start}
	defer func() {
		if r := recover(); r != nil {
			result.Panic = r
			pass.End(result)
			panic(r)
		}
		pass.End(result)
	}()

	lvl := start
	next := d.levels[lvl].cell
	for lvl < len(d.levels) {
		tracked := &d.levels[lvl]

		// Only levels below start can see a new cell here.
		if !next.same(tracked.cell) {
			d.resubscribe(lvl, next)
			pass.Resubscribed(lvl)
		}

		var value any = absentValue
		if next.present() {
			value = next.value()
		}
		if cell.Same(value, tracked.value) {
			result.StopLevel = lvl
			return
		}
		tracked.value = value

		if value == absentValue {
			next = link{}
		} else {
			next = d.steps[lvl].apply(value)
			pass.StepApplied(lvl)
		}
		lvl++
		result.StopLevel = lvl
	}

	d.publish(next)
	result.Published = true
	result.Present = next.present()
}

func (d *Deep[O]) resubscribe(lvl int, next link) {
	tracked := &d.levels[lvl]
	if tracked.unsubscribe != nil {
		tracked.unsubscribe()
		tracked.unsubscribe = nil
	}

	tracked.cell = next
	if next.present() {
		tracked.unsubscribe = next.subscribe(d.listener(lvl))
	}
	d.logger.Debug("nesting level resubscribed", "nesting", d.name, "level", lvl, "present", next.present())
}

func (d *Deep[O]) publish(leaf link) {
	if !leaf.present() {
		d.inner.SetValue(opt.None[O]())
		return
	}

	o, ok := leaf.ident.(O)
	if !ok {
		panic(codedError("N005", ErrLeafType,
			"the inner cell is a %T, not a %s", leaf.ident, reflect.TypeFor[O]()))
	}
	d.inner.SetValue(opt.Some(o))
	d.logger.Debug("nesting published", "nesting", d.name, "inner", leaf.ident)
}
