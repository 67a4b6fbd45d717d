// Package scenario describes nesting setups as YAML documents, runs them
// against real cells and records what the engine did after every
// operation.
//
// A scenario declares cells, records whose fields name cells, a chain from
// an outer cell through field steps ("b") and dereference steps ("*"), an
// optional bound target, and a script:
//
//	name: depth-two
//	cells:
//	  A:  {record: a1}
//	  H1: {cell: B1}
//	  H2: {cell: B2}
//	  B1: {int: 5}
//	  B2: {int: 7}
//	records:
//	  a1: {b: H1}
//	  a2: {b: H2}
//	chain:
//	  outer: A
//	  steps: [b, "*"]
//	bind:
//	  initial: {int: 0}
//	script:
//	  - set: B1
//	    int: 9
//	  - set: A
//	    record: a2
//	    expect: {inner: B2, bound: {int: 7}}
//
// Runner.Run returns a Result whose Trace is stable across runs, so it can
// be kept as a golden file.
package scenario
