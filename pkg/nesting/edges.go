package nesting

import (
	"log/slog"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/opt"
)

// EdgeDetector turns the stream of inner cells published by a Nesting into
// discrete edges over two states, absent and present(inner):
//
//   - enter(inner) when an inner cell becomes current,
//   - leave(inner) when the current inner cell stops being current,
//   - presence(old, new) after every state change.
//
// Replacing one inner cell by another fires leave, enter and
// presence(true, true). Republishing the current state fires nothing, no
// matter how many propagation passes produced it.
//
// The detector owns its nesting: Stop disposes it.
type EdgeDetector[O any] struct {
	nesting Nesting[O]
	name    string
	logger  *slog.Logger

	onEnter    []func(O)
	onLeave    []func(O)
	onPresence []func(old, new bool)

	current     opt.Option[O]
	unsubscribe cell.Unsubscribe

	started bool
	stopped bool
}

// NewEdgeDetector returns a detector for n. Register callbacks, then Start.
func NewEdgeDetector[O any](n Nesting[O], opts ...Option) (*EdgeDetector[O], error) {
	if isNil(n) {
		return nil, codedError("N007", ErrMissingTarget, "NewEdgeDetector was called with a nil nesting")
	}
	o := buildOptions(opts)
	return &EdgeDetector[O]{
		nesting: n,
		name:    o.name,
		logger:  o.logger,
	}, nil
}

// OnEnter registers fn to be called when an inner cell becomes current.
func (d *EdgeDetector[O]) OnEnter(fn func(inner O)) *EdgeDetector[O] {
	if fn != nil {
		d.onEnter = append(d.onEnter, fn)
	}
	return d
}

// OnLeave registers fn to be called when the current inner cell is left.
func (d *EdgeDetector[O]) OnLeave(fn func(inner O)) *EdgeDetector[O] {
	if fn != nil {
		d.onLeave = append(d.onLeave, fn)
	}
	return d
}

// OnPresenceChange registers fn to be called after every state change with
// the presence before and after it.
func (d *EdgeDetector[O]) OnPresenceChange(fn func(old, new bool)) *EdgeDetector[O] {
	if fn != nil {
		d.onPresence = append(d.onPresence, fn)
	}
	return d
}

// Start begins observing. Activation counts as a transition from "nothing
// observed yet": enter fires if an inner cell is present, then
// presence(false, present). Starting twice is a no-op; starting after Stop
// returns ErrStopped.
func (d *EdgeDetector[O]) Start() error {
	if d.stopped {
		return codedError("N006", ErrStopped, "Start was called on a stopped edge detector %q", d.name)
	}
	if d.started {
		return nil
	}
	d.started = true

	inner := d.nesting.Inner()
	d.current = inner.Value()
	d.unsubscribe = inner.Subscribe(func(_, next opt.Option[O]) {
		d.transition(next)
	})

	if v, ok := d.current.Get(); ok {
		d.fireEnter(v)
	}
	d.firePresence(false, d.current.IsPresent())
	return nil
}

// Stop stops observing and disposes the nesting. No callback fires after
// Stop returns, and none fires from within Stop.
func (d *EdgeDetector[O]) Stop() {
	if d.stopped {
		return
	}
	d.stopped = true

	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.nesting.Dispose()
	d.logger.Debug("edge detector stopped", "nesting", d.name)
}

// Current returns the inner cell the detector considers current.
func (d *EdgeDetector[O]) Current() (O, bool) {
	return d.current.Get()
}

// Running reports whether the detector was started and not stopped.
func (d *EdgeDetector[O]) Running() bool {
	return d.started && !d.stopped
}

func (d *EdgeDetector[O]) transition(next opt.Option[O]) {
	if d.stopped {
		return
	}
	prev := d.current
	if sameInner(prev, next) {
		return
	}
	d.current = next

	d.logger.Debug("presence edge",
		"nesting", d.name,
		"wasPresent", prev.IsPresent(),
		"present", next.IsPresent(),
	)

	if v, ok := prev.Get(); ok {
		d.fireLeave(v)
	}
	if v, ok := next.Get(); ok {
		d.fireEnter(v)
	}
	d.firePresence(prev.IsPresent(), next.IsPresent())
}

func (d *EdgeDetector[O]) fireEnter(inner O) {
	for _, fn := range d.onEnter {
		if d.stopped {
			return
		}
		fn(inner)
	}
}

func (d *EdgeDetector[O]) fireLeave(inner O) {
	for _, fn := range d.onLeave {
		if d.stopped {
			return
		}
		fn(inner)
	}
}

func (d *EdgeDetector[O]) firePresence(old, new bool) {
	for _, fn := range d.onPresence {
		if d.stopped {
			return
		}
		fn(old, new)
	}
}
