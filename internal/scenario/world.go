package scenario

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/nestingtrace"
)

// Record is a scenario record: a named value whose fields are cells.
type Record struct {
	Name   string
	Fields map[string]*cell.Cell[any]
}

func (r *Record) String() string {
	return "record " + r.Name
}

// world holds the live cells and records of one run.
type world struct {
	cells   map[string]*cell.Cell[any]
	records map[string]*Record
	names   *nestingtrace.Names
}

// build creates every cell and record, then assigns initial values. No
// cell has subscribers yet, so nothing is notified.
func build(sc *Scenario) *world {
	w := &world{
		cells:   make(map[string]*cell.Cell[any], len(sc.Cells)),
		records: make(map[string]*Record, len(sc.Records)),
		names:   nestingtrace.NewNames(),
	}

	for _, name := range sortedKeys(sc.Cells) {
		c := cell.New[any](nil)
		w.cells[name] = c
		w.names.Add(name, c)
	}
	for _, name := range sortedKeys(sc.Records) {
		fields := sc.Records[name]
		r := &Record{Name: name, Fields: make(map[string]*cell.Cell[any], len(fields))}
		for field, target := range fields {
			r.Fields[field] = w.cells[target]
		}
		w.records[name] = r
	}
	for _, name := range sortedKeys(sc.Cells) {
		w.cells[name].SetValue(w.value(sc.Cells[name]))
	}
	return w
}

// value resolves a literal to what a cell holds.
func (w *world) value(v Value) any {
	switch {
	case v.Int != nil:
		return *v.Int
	case v.Str != nil:
		return *v.Str
	case v.Record != "":
		return w.records[v.Record]
	case v.Cell != "":
		return w.cells[v.Cell]
	}
	return nil
}

// describe renders a cell value for traces.
func (w *world) describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "absent"
	case int:
		return strconv.Itoa(x)
	case string:
		return strconv.Quote(x)
	case *Record:
		return x.String()
	case *cell.Cell[any]:
		return "cell " + w.names.Of(x)
	}
	return fmt.Sprintf("%v", v)
}

// steps turns chain step names into nesting steps.
func (w *world) steps(names []string) []nesting.Step {
	steps := make([]nesting.Step, len(names))
	for i, name := range names {
		if name == DerefStep {
			steps[i] = derefStep()
		} else {
			steps[i] = fieldStep(name)
		}
	}
	return steps
}

// fieldStep reads a record field. Anything but a record, or a record
// without the field, makes the next level absent.
func fieldStep(field string) nesting.Step {
	return nesting.NextCell(func(v any) *cell.Cell[any] {
		r, ok := v.(*Record)
		if !ok {
			return nil
		}
		return r.Fields[field]
	})
}

// derefStep follows a value that is itself a cell.
func derefStep() nesting.Step {
	return nesting.NextCell(func(v any) *cell.Cell[any] {
		c, _ := v.(*cell.Cell[any])
		return c
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
