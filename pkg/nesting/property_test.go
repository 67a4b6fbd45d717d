package nesting_test

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/nestingtest"
	"github.com/nipafx/LibFX-sub001/pkg/nestingtrace"
)

const propertyN = 500

// graph is a pool of nodes whose next cells may point anywhere in the
// pool, including back at themselves.
type graph struct {
	outer *cell.Cell[*node]
	nodes []*node
}

func newGraph(rng *rand.Rand, size int) *graph {
	g := &graph{nodes: make([]*node, size)}
	for i := range g.nodes {
		g.nodes[i] = newNode(fmt.Sprintf("n%d", i), nil)
	}
	for _, n := range g.nodes {
		n.next.SetValue(g.pick(rng))
	}
	g.outer = cell.New(g.pick(rng))
	return g
}

// pick returns a random node, or nil one time in five.
func (g *graph) pick(rng *rand.Rand) *node {
	if rng.IntN(5) == 0 {
		return nil
	}
	return g.nodes[rng.IntN(len(g.nodes))]
}

// mutate writes a random node into a random cell of the graph.
func (g *graph) mutate(rng *rand.Rand) {
	i := rng.IntN(len(g.nodes) + 1)
	if i == len(g.nodes) {
		g.outer.SetValue(g.pick(rng))
		return
	}
	g.nodes[i].next.SetValue(g.pick(rng))
}

// expectSubscriptions checks that every cell carries exactly one
// subscription per level tracking it.
func expectSubscriptions(t *testing.T, g *graph, d *nesting.Deep[nodeCell]) {
	t.Helper()
	want := make(map[*cell.Cell[*node]]int)
	for _, l := range d.Levels() {
		if !l.Subscribed {
			continue
		}
		switch c := l.Cell.(type) {
		case *cell.Cell[*node]:
			want[c]++
		default:
			t.Fatalf("level %d tracks unexpected %T", l.Level, l.Cell)
		}
	}

	if got := g.outer.SubscriberCount(); got != want[g.outer] {
		t.Fatalf("outer: expected %d subscriptions, got %d", want[g.outer], got)
	}
	for _, n := range g.nodes {
		if got := n.next.SubscriberCount(); got != want[n.next] {
			t.Fatalf("%s.next: expected %d subscriptions, got %d", n.name, want[n.next], got)
		}
	}
}

func TestPropertyDeepConverges(t *testing.T) {
	for depth := 1; depth <= 4; depth++ {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, uint64(depth)))
			g := newGraph(rng, 6)
			steps := nodeSteps(depth)

			d, err := nesting.NewDeep[*node, nodeCell](g.outer, steps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer d.Dispose()

			for range propertyN {
				g.mutate(rng)
				nestingtest.ExpectConverged[*node, nodeCell](t, d, g.outer, steps)
				expectSubscriptions(t, g, d)
				if t.Failed() {
					return
				}
			}
		})
	}
}

// edgeChecker replays recorded detector events and fails on any sequence
// that is not a clean edge: a leave names the current cell, an enter
// happens only while nothing is current, and each presence callback closes
// a real transition.
type edgeChecker struct {
	t       *testing.T
	current string
	present bool
	left    bool
	entered bool
	started bool
}

func (c *edgeChecker) replay(events []string) {
	c.t.Helper()
	for _, e := range events {
		switch {
		case strings.HasPrefix(e, "leave:"):
			name := strings.TrimPrefix(e, "leave:")
			if c.current != name || c.left {
				c.t.Fatalf("%s while current is %q", e, c.current)
			}
			c.current, c.left = "", true
		case strings.HasPrefix(e, "enter:"):
			if c.current != "" {
				c.t.Fatalf("%s while %q is current", e, c.current)
			}
			c.current, c.entered = strings.TrimPrefix(e, "enter:"), true
		default:
			var old, new bool
			if _, err := fmt.Sscanf(e, "presence:%t->%t", &old, &new); err != nil {
				c.t.Fatalf("unexpected event %q", e)
			}
			if old != c.present {
				c.t.Fatalf("%s but presence was %t", e, c.present)
			}
			if new != (c.current != "") {
				c.t.Fatalf("%s but current is %q", e, c.current)
			}
			if c.started && !c.left && !c.entered {
				c.t.Fatalf("%s without a leave or enter", e)
			}
			c.present, c.left, c.entered, c.started = new, false, false, true
		}
	}
	if c.left || c.entered {
		c.t.Fatalf("transition %q was not closed by a presence callback", events)
	}
}

func TestPropertyCleanEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	g := newGraph(rng, 5)
	names := nestingtrace.NewNames()
	for _, n := range g.nodes {
		names.Add(n.name, n.next)
	}

	n, err := nesting.New[*node, nodeCell](g.outer, nodeSteps(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := nesting.NewEdgeDetector(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := nestingtrace.NewRecorder[nodeCell](names.Of).Attach(d)
	check := &edgeChecker{t: t}

	if err := d.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Stop()

	for range propertyN {
		check.replay(r.Events())
		r.Reset()

		inner, ok := n.Inner().Value().Get()
		want := ""
		if ok {
			want = names.Of(inner)
		}
		if check.current != want {
			t.Fatalf("detector events end at %q, nesting publishes %q", check.current, want)
		}
		if cur, curOK := d.Current(); curOK != ok || cur != inner {
			t.Fatalf("detector current %v diverged from the nesting %v", cur, inner)
		}

		g.mutate(rng)
	}
}
