package scenario

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nipafx/LibFX-sub001/internal/errors"
)

// DerefStep is the chain step that follows a cell-holding value.
const DerefStep = "*"

// Absence policies accepted in bind.absent.
const (
	AbsentKeep           = "keep"
	AbsentDefault        = "default"
	AbsentDefaultOnFirst = "default-on-first"
)

// Scenario is one parsed scenario document.
type Scenario struct {
	Name        string                       `yaml:"name" json:"name"`
	Description string                       `yaml:"description,omitempty" json:"description,omitempty"`
	Cells       map[string]Value             `yaml:"cells" json:"cells"`
	Records     map[string]map[string]string `yaml:"records,omitempty" json:"records,omitempty"`
	Chain       Chain                        `yaml:"chain" json:"chain"`
	Bind        *Bind                        `yaml:"bind,omitempty" json:"bind,omitempty"`
	Script      []Op                         `yaml:"script,omitempty" json:"script,omitempty"`
	Expect      *Expect                      `yaml:"expect,omitempty" json:"expect,omitempty"`

	source string
	root   *yaml.Node
}

// Value is a literal cell value. At most one field may be set; none means
// absent.
type Value struct {
	Int    *int    `yaml:"int,omitempty" json:"int,omitempty"`
	Str    *string `yaml:"str,omitempty" json:"str,omitempty"`
	Record string  `yaml:"record,omitempty" json:"record,omitempty"`
	Cell   string  `yaml:"cell,omitempty" json:"cell,omitempty"`
	Absent bool    `yaml:"absent,omitempty" json:"absent,omitempty"`
}

// Chain names the outer cell and the steps walked from it.
type Chain struct {
	Outer string   `yaml:"outer" json:"outer"`
	Steps []string `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Bind configures a target cell kept in sync with the inner cell.
type Bind struct {
	Initial Value  `yaml:"initial" json:"initial"`
	Absent  string `yaml:"absent,omitempty" json:"absent,omitempty"`
	Default Value  `yaml:"default" json:"default"`
}

// Op is one script operation: either set a named cell or write the bound
// target.
type Op struct {
	Set   string `yaml:"set,omitempty" json:"set,omitempty"`
	Value `yaml:",inline" json:",inline"`
	Write *Value `yaml:"write,omitempty" json:"write,omitempty"`

	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect lists assertions on the state after an operation. Unset fields
// are not checked. Inner is a cell name, or "-" for absent.
type Expect struct {
	Inner  *string   `yaml:"inner,omitempty" json:"inner,omitempty"`
	Bound  *Value    `yaml:"bound,omitempty" json:"bound,omitempty"`
	Events *[]string `yaml:"events,omitempty" json:"events,omitempty"`
	Passes *int      `yaml:"passes,omitempty" json:"passes,omitempty"`
	Steps  *int      `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Source returns where the scenario was loaded from.
func (s *Scenario) Source() string {
	return s.source
}

// Parse decodes and validates a scenario. source is used in error
// locations and may be a path or an s3:// URI.
func Parse(data []byte, source string) (*Scenario, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.New("S002").
			WithDetail(source + ": " + err.Error()).
			Wrap(err)
	}
	if len(bytes.TrimSpace(data)) == 0 || len(root.Content) == 0 {
		return nil, errors.New("S002").WithDetail(source + " is empty")
	}

	sc := &Scenario{source: source, root: &root}
	dec := root.Content[0]
	if err := dec.Decode(sc); err != nil {
		return nil, errors.New("S002").
			WithDetail(source + ": " + err.Error()).
			Wrap(err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks that every name the scenario uses is declared.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return s.fail("S002", "the scenario has no name", "name")
	}
	if len(s.Cells) == 0 {
		return s.fail("S002", "the scenario declares no cells", "cells")
	}

	for name, v := range s.Cells {
		if err := s.checkValue(v, "cells", name); err != nil {
			return err
		}
	}
	for rec, fields := range s.Records {
		for field, target := range fields {
			if _, ok := s.Cells[target]; !ok {
				return s.fail("S003", fmt.Sprintf("record %q field %q names cell %q, which is not declared", rec, field, target),
					"records", rec, field)
			}
		}
	}

	if s.Chain.Outer == "" {
		return s.fail("S002", "chain.outer is required", "chain")
	}
	if _, ok := s.Cells[s.Chain.Outer]; !ok {
		return s.fail("S003", fmt.Sprintf("chain.outer names cell %q, which is not declared", s.Chain.Outer),
			"chain", "outer")
	}
	for i, step := range s.Chain.Steps {
		if step == "" {
			return s.fail("S005", fmt.Sprintf("chain step %d is empty", i), "chain", "steps", strconv.Itoa(i))
		}
	}

	if s.Bind != nil {
		switch s.Bind.Absent {
		case "", AbsentKeep, AbsentDefault, AbsentDefaultOnFirst:
		default:
			return s.fail("S005", fmt.Sprintf("bind.absent must be %s, %s or %s; got %q",
				AbsentKeep, AbsentDefault, AbsentDefaultOnFirst, s.Bind.Absent), "bind", "absent")
		}
		if err := s.checkValue(s.Bind.Initial, "bind", "initial"); err != nil {
			return err
		}
		if err := s.checkValue(s.Bind.Default, "bind", "default"); err != nil {
			return err
		}
	}

	for i, op := range s.Script {
		idx := strconv.Itoa(i)
		switch {
		case op.Set != "" && op.Write != nil:
			return s.fail("S005", fmt.Sprintf("script step %d both sets and writes", i), "script", idx)
		case op.Set != "":
			if _, ok := s.Cells[op.Set]; !ok {
				return s.fail("S003", fmt.Sprintf("script step %d sets cell %q, which is not declared", i, op.Set),
					"script", idx, "set")
			}
			if err := s.checkValue(op.Value, "script", idx); err != nil {
				return err
			}
		case op.Write != nil:
			if s.Bind == nil {
				return s.fail("S005", fmt.Sprintf("script step %d writes the target, but nothing is bound", i),
					"script", idx, "write")
			}
			if err := s.checkValue(*op.Write, "script", idx, "write"); err != nil {
				return err
			}
		default:
			return s.fail("S005", fmt.Sprintf("script step %d neither sets a cell nor writes the target", i), "script", idx)
		}
		if err := s.checkExpect(op.Expect, "script", idx, "expect"); err != nil {
			return err
		}
	}
	return s.checkExpect(s.Expect, "expect")
}

func (s *Scenario) checkValue(v Value, path ...string) error {
	set := 0
	if v.Int != nil {
		set++
	}
	if v.Str != nil {
		set++
	}
	if v.Record != "" {
		set++
		if _, ok := s.Records[v.Record]; !ok {
			return s.fail("S004", fmt.Sprintf("record %q is not declared", v.Record), path...)
		}
	}
	if v.Cell != "" {
		set++
		if _, ok := s.Cells[v.Cell]; !ok {
			return s.fail("S003", fmt.Sprintf("cell %q is not declared", v.Cell), path...)
		}
	}
	if v.Absent {
		set++
	}
	if set > 1 {
		return s.fail("S002", "a value sets more than one of int, str, record, cell and absent", path...)
	}
	return nil
}

func (s *Scenario) checkExpect(e *Expect, path ...string) error {
	if e == nil {
		return nil
	}
	if e.Inner != nil && *e.Inner != "-" {
		if _, ok := s.Cells[*e.Inner]; !ok {
			return s.fail("S003", fmt.Sprintf("expected inner cell %q is not declared", *e.Inner), append(path, "inner")...)
		}
	}
	if e.Bound != nil {
		if s.Bind == nil {
			return s.fail("S005", "an expectation checks the bound value, but nothing is bound", append(path, "bound")...)
		}
		return s.checkValue(*e.Bound, append(path, "bound")...)
	}
	return nil
}

// fail builds a coded error located at the node reached by path.
func (s *Scenario) fail(code, detail string, path ...string) error {
	err := errors.New(code).WithDetail(detail)
	if s.root == nil {
		return err
	}
	if line, col := locate(s.root, path...); line > 0 {
		err = err.WithLocation(s.source, line, col)
	}
	return err
}

// locate returns the position of the node reached by following mapping
// keys and sequence indexes from root, or of the deepest node found.
func locate(root *yaml.Node, path ...string) (line, col int) {
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	line, col = n.Line, n.Column

	for _, key := range path {
		var next *yaml.Node
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == key {
					line, col = n.Content[i].Line, n.Content[i].Column
					next = n.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(n.Content) {
				next = n.Content[i]
				line, col = next.Line, next.Column
			}
		}
		if next == nil {
			return line, col
		}
		n = next
	}
	return line, col
}
