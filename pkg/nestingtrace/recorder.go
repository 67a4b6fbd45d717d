package nestingtrace

import (
	"fmt"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// Names maps cells to readable names by identity.
type Names struct {
	entries []nameEntry
}

type nameEntry struct {
	name string
	cell any
}

// NewNames returns an empty name table.
func NewNames() *Names {
	return &Names{}
}

// Add names c. It returns n for chaining.
func (n *Names) Add(name string, c any) *Names {
	n.entries = append(n.entries, nameEntry{name: name, cell: c})
	return n
}

// Of returns the name of c, or its %v form if it was never named.
func (n *Names) Of(c any) string {
	for _, e := range n.entries {
		if cell.Same(e.cell, c) {
			return e.name
		}
	}
	return fmt.Sprintf("%v", c)
}

// Recorder collects edge detector callbacks as strings of the form
// "enter:NAME", "leave:NAME" and "presence:OLD->NEW".
type Recorder[O any] struct {
	name   func(any) string
	events []string
}

// NewRecorder returns a Recorder that names inner cells with name. A nil
// name formats cells with %v.
func NewRecorder[O any](name func(any) string) *Recorder[O] {
	if name == nil {
		name = func(c any) string { return fmt.Sprintf("%v", c) }
	}
	return &Recorder[O]{name: name}
}

// Attach registers the recorder's callbacks on d. Call it before d.Start.
func (r *Recorder[O]) Attach(d *nesting.EdgeDetector[O]) *Recorder[O] {
	d.OnEnter(func(inner O) {
		r.events = append(r.events, "enter:"+r.name(inner))
	})
	d.OnLeave(func(inner O) {
		r.events = append(r.events, "leave:"+r.name(inner))
	})
	d.OnPresenceChange(func(old, new bool) {
		r.events = append(r.events, fmt.Sprintf("presence:%t->%t", old, new))
	})
	return r
}

// Events returns the recorded events, oldest first.
func (r *Recorder[O]) Events() []string {
	return append([]string(nil), r.events...)
}

// Reset forgets every recorded event.
func (r *Recorder[O]) Reset() {
	r.events = nil
}
