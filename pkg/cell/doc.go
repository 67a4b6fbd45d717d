// Package cell provides the reactive cell contracts the nesting engine
// depends on, together with a concrete single-threaded implementation.
//
// # Contracts
//
// ReactiveCell[T] is the minimal read-and-observe capability:
//
//	c := cell.New(0)
//	stop := c.Subscribe(func(old, new int) {
//	    fmt.Println(old, "->", new)
//	})
//	c.SetValue(5) // prints "0 -> 5"
//	stop()
//
// MutableReactiveCell[T] additionally accepts writes and bidirectional
// links to other mutable cells of the same type:
//
//	a := cell.New("x")
//	b := cell.New("y")
//	a.BindBidirectional(b) // a takes b's value
//	a.SetValue("z")        // b is now "z" too
//	a.UnbindBidirectional(b)
//
// # Change Detection
//
// A cell notifies only when a write changes its value. By default values are
// compared by identity (see Same): two distinct pointers are different values
// even if they point at equal data. Use WithEquals for value semantics.
//
// # Threading
//
// Cells are not safe for concurrent use. Notification is synchronous and
// reentrant: subscribers run on the goroutine that performed the write.
package cell
