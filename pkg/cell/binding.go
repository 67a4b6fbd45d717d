package cell

// bidiBinding keeps a cell and another mutable cell in sync.
type bidiBinding[T any] struct {
	other MutableReactiveCell[T]

	// updating is set while one side is writing the other, so the echo
	// notification is not written back.
	updating bool

	unsubSelf  Unsubscribe
	unsubOther Unsubscribe
}

// BindBidirectional links c and other. c immediately takes other's value;
// afterwards a change in either cell is written to the other. Binding a cell
// to itself, to nil, or to a cell it is already bound to is a no-op.
func (c *Cell[T]) BindBidirectional(other MutableReactiveCell[T]) {
	if other == nil || Same(MutableReactiveCell[T](c), other) {
		return
	}
	if c.bindingIndex(other) >= 0 {
		return
	}

	b := &bidiBinding[T]{other: other}

	// Snap before subscribing so the initial write is not echoed back.
	c.SetValue(other.Value())

	b.unsubOther = other.Subscribe(func(_, v T) {
		b.transfer(func() { c.SetValue(v) })
	})
	b.unsubSelf = c.Subscribe(func(_, v T) {
		b.transfer(func() { other.SetValue(v) })
	})

	c.bindings = append(c.bindings, b)
}

// UnbindBidirectional removes the link to other created by
// c.BindBidirectional. Both cells keep their current values.
func (c *Cell[T]) UnbindBidirectional(other MutableReactiveCell[T]) {
	i := c.bindingIndex(other)
	if i < 0 {
		return
	}

	b := c.bindings[i]
	b.unsubSelf()
	b.unsubOther()
	c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
}

// BoundTo reports whether c currently holds a bidirectional link to other.
func (c *Cell[T]) BoundTo(other MutableReactiveCell[T]) bool {
	return c.bindingIndex(other) >= 0
}

// BindingCount returns the number of bidirectional links created by c.
func (c *Cell[T]) BindingCount() int {
	return len(c.bindings)
}

func (c *Cell[T]) bindingIndex(other MutableReactiveCell[T]) int {
	if other == nil {
		return -1
	}
	for i, b := range c.bindings {
		if Same(b.other, other) {
			return i
		}
	}
	return -1
}

func (b *bidiBinding[T]) transfer(write func()) {
	if b.updating {
		return
	}
	b.updating = true
	defer func() { b.updating = false }()
	write()
}
