// Package nesting exposes a single, always-current reference into a chain of
// nested reactive cells.
//
// A chain starts at an outer cell. Each nesting step maps the value held at
// one level to the cell of the next level; the cell reached after the last
// step is the inner (leaf) cell. A Nesting publishes the identity of that
// inner cell, or absence, through a reactive cell of its own:
//
//	// person -> address -> street
//	n, err := nesting.New[*Person, cell.MutableReactiveCell[string]](
//	    currentPerson,
//	    []nesting.Step{
//	        nesting.NextCell(func(p *Person) *cell.Cell[*Address] { return p.Address }),
//	        nesting.NextCell(func(a *Address) *cell.Cell[string] { return a.Street }),
//	    },
//	)
//
//	inner, ok := n.Inner().Value().Get()
//
// # Propagation
//
// Deep keeps one subscription per level and, when a level changes, walks
// down only as far as values actually changed. A change to the leaf's value
// costs nothing: the leaf is never subscribed, only its identity is tracked.
// Replacing an intermediate cell moves subscriptions for the levels below it
// and leaves the levels above untouched.
//
// # Presence Edges and Binding
//
// EdgeDetector turns the published stream into enter, leave and presence
// callbacks. CellSync builds on it to keep a caller-owned mutable cell bound
// bidirectionally to whatever inner cell is currently present:
//
//	street := cell.New("")
//	sync, _ := nesting.NewCellSync(n, street, nesting.KeepLast[string]())
//	sync.Start()
//	defer sync.Stop()
//
// # Errors
//
// Usage errors wrap one of the Err sentinels, so match them with errors.Is.
// Each also carries a stable code (N001 to N007) that ErrorCode extracts;
// the concrete error type is internal to this module.
//
// # Threading
//
// Everything in this package runs synchronously on the goroutine that
// mutated a cell. Nothing is safe for concurrent use; confine a chain and
// all of its cells to one goroutine.
package nesting
