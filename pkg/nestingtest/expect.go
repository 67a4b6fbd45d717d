package nestingtest

import (
	"slices"
	"testing"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/nestingtrace"
)

// ExpectInner asserts that n currently publishes want.
func ExpectInner[O any](t testing.TB, n nesting.Nesting[O], want O) {
	t.Helper()
	got, ok := n.Inner().Value().Get()
	if !ok {
		t.Errorf("expected inner cell %v, got none", want)
		return
	}
	if !cell.Same(got, want) {
		t.Errorf("expected inner cell %v, got %v", want, got)
	}
}

// ExpectAbsent asserts that n currently publishes no inner cell.
func ExpectAbsent[O any](t testing.TB, n nesting.Nesting[O]) {
	t.Helper()
	if got, ok := n.Inner().Value().Get(); ok {
		t.Errorf("expected no inner cell, got %v", got)
	}
}

// ExpectEvents asserts that r recorded exactly want, then resets it.
func ExpectEvents[O any](t testing.TB, r *nestingtrace.Recorder[O], want ...string) {
	t.Helper()
	got := r.Events()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected events %q, got %q", want, got)
	}
	r.Reset()
}

// ExpectConverged asserts that d publishes what a fresh walk of the chain
// reaches, and that exactly the present levels hold a subscription.
func ExpectConverged[T, O any](t testing.TB, d *nesting.Deep[O], outer cell.ReactiveCell[T], steps []nesting.Step) {
	t.Helper()

	want, err := nesting.Resolve[T, O](outer, steps)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := d.Inner().Value()
	gv, gok := got.Get()
	wv, wok := want.Get()
	if gok != wok || (gok && !cell.Same(gv, wv)) {
		t.Errorf("expected inner %v, got %v", want, got)
	}

	for _, l := range d.Levels() {
		if l.Present != l.Subscribed {
			t.Errorf("level %d: present=%t but subscribed=%t", l.Level, l.Present, l.Subscribed)
		}
	}
}
