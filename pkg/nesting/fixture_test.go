package nesting_test

import (
	"testing"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/opt"
)

type intCell = cell.MutableReactiveCell[int]

// rec is an outer value whose second level is itself a cell, so the chain
// outer -> rec.b -> *cell.Cell[int] can be broken at either level.
type rec struct {
	name string
	b    *cell.Cell[*cell.Cell[int]]
}

func newRec(name string, leaf *cell.Cell[int]) *rec {
	return &rec{name: name, b: cell.New(leaf)}
}

func (r *rec) String() string {
	return r.name
}

// recSteps walks outer -> rec.b -> leaf.
func recSteps() []nesting.Step {
	return []nesting.Step{
		nesting.NextCell(func(r *rec) *cell.Cell[*cell.Cell[int]] {
			if r == nil {
				return nil
			}
			return r.b
		}),
		nesting.NextCell(func(c *cell.Cell[int]) *cell.Cell[int] {
			return c
		}),
	}
}

// node links to the next level through its own cell, so chains of any
// depth share one step.
type node struct {
	name string
	next *cell.Cell[*node]
}

func newNode(name string, next *node) *node {
	return &node{name: name, next: cell.New(next)}
}

func (n *node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.name
}

func nodeStep() nesting.Step {
	return nesting.NextCell(func(n *node) *cell.Cell[*node] {
		if n == nil {
			return nil
		}
		return n.next
	})
}

func nodeSteps(depth int) []nesting.Step {
	steps := make([]nesting.Step, depth)
	for i := range steps {
		steps[i] = nodeStep()
	}
	return steps
}

type nodeCell = *cell.Cell[*node]

type (
	nestingOpt = opt.Option[intCell]
	nodeOpt    = opt.Option[nodeCell]
)

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	got, ok := nesting.ErrorCode(err)
	if !ok {
		t.Fatalf("expected a coded error, got %T: %v", err, err)
	}
	if got != code {
		t.Errorf("expected code %s, got %s", code, got)
	}
}

type shallowOpt = opt.Option[*cell.Cell[string]]
