package cell

import "fmt"

// Unsubscribe cancels a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// ReactiveCell is a value container that notifies subscribers synchronously
// when its value changes.
type ReactiveCell[T any] interface {
	// Value returns the current value.
	Value() T

	// Subscribe registers fn to be called with the previous and the new
	// value after every change. The returned function cancels the
	// subscription; once cancelled, fn is never called again.
	Subscribe(fn func(old, new T)) Unsubscribe
}

// MutableReactiveCell is a ReactiveCell that also accepts writes and
// bidirectional links to other mutable cells of the same type.
type MutableReactiveCell[T any] interface {
	ReactiveCell[T]

	// SetValue writes v, notifying subscribers if the value changed.
	SetValue(v T)

	// BindBidirectional makes the receiver take other's current value and
	// keeps both cells in sync from then on.
	BindBidirectional(other MutableReactiveCell[T])

	// UnbindBidirectional removes a link previously created by calling
	// BindBidirectional on the receiver.
	UnbindBidirectional(other MutableReactiveCell[T])
}

// subscriber is one registered change callback.
type subscriber[T any] struct {
	id     uint64
	fn     func(old, new T)
	active bool
}

// Cell is the concrete MutableReactiveCell.
type Cell[T any] struct {
	id uint64

	// value is the current cell value.
	value T

	// subs are notified in registration order.
	subs []*subscriber[T]

	// equal decides whether a write changed the value.
	// If nil, Same is used.
	equal func(T, T) bool

	// bindings are the bidirectional links created by this cell.
	bindings []*bidiBinding[T]
}

// New creates a cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		id:    nextID(),
		value: initial,
	}
}

// Value returns the current value.
func (c *Cell[T]) Value() T {
	return c.value
}

// SetValue writes v and notifies subscribers if it differs from the current
// value under the cell's equality.
func (c *Cell[T]) SetValue(v T) {
	old := c.value
	if c.equals(old, v) {
		return
	}
	c.value = v
	c.notify(old, v)
}

// Update replaces the value with fn applied to the current value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.SetValue(fn(c.value))
}

// Subscribe registers fn for change notifications.
func (c *Cell[T]) Subscribe(fn func(old, new T)) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	s := &subscriber[T]{id: nextID(), fn: fn, active: true}
	c.subs = append(c.subs, s)
	return func() { c.unsubscribe(s) }
}

// unsubscribe removes s, keeping the remaining subscribers in order.
func (c *Cell[T]) unsubscribe(s *subscriber[T]) {
	if !s.active {
		return
	}
	s.active = false

	for i, existing := range c.subs {
		if existing.id == s.id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// notify calls every active subscriber. Subscribers are copied first so that
// callbacks may subscribe or unsubscribe freely; a subscriber cancelled by an
// earlier callback in the same round is skipped.
func (c *Cell[T]) notify(old, new T) {
	if len(c.subs) == 0 {
		return
	}

	subs := make([]*subscriber[T], len(c.subs))
	copy(subs, c.subs)

	for _, s := range subs {
		if s.active {
			s.fn(old, new)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (c *Cell[T]) SubscriberCount() int {
	return len(c.subs)
}

// WithEquals returns the cell configured with a custom equality function.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.id
}

// String implements fmt.Stringer.
func (c *Cell[T]) String() string {
	return fmt.Sprintf("cell#%d(%v)", c.id, c.value)
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return Same(a, b)
}

// readOnly hides the write side of a cell.
type readOnly[T any] struct {
	c ReactiveCell[T]
}

// ReadOnly returns a view of c exposing only the ReactiveCell methods.
// Two views of the same cell are the same value under Same.
func ReadOnly[T any](c ReactiveCell[T]) ReactiveCell[T] {
	if ro, ok := c.(readOnly[T]); ok {
		return ro
	}
	return readOnly[T]{c: c}
}

func (r readOnly[T]) Value() T {
	return r.c.Value()
}

func (r readOnly[T]) Subscribe(fn func(old, new T)) Unsubscribe {
	return r.c.Subscribe(fn)
}
