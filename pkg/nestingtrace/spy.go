package nestingtrace

import (
	"sync"

	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// Pass is one recorded propagation pass.
type Pass struct {
	Info nesting.PassInfo

	// Steps lists the levels whose step was applied, in order.
	Steps []int

	// Resubscribed lists the levels whose tracked cell was replaced.
	Resubscribed []int

	Result nesting.PassResult
	Ended  bool
}

// Spy is a nesting.Observer that records every pass.
type Spy struct {
	mu     sync.Mutex
	passes []*Pass
}

// NewSpy returns an empty Spy.
func NewSpy() *Spy {
	return &Spy{}
}

// BeginPass implements nesting.Observer.
func (s *Spy) BeginPass(info nesting.PassInfo) nesting.PassObserver {
	p := &Pass{Info: info}
	s.mu.Lock()
	s.passes = append(s.passes, p)
	s.mu.Unlock()
	return &spyPass{spy: s, pass: p}
}

// Passes returns a copy of the recorded passes, oldest first.
func (s *Spy) Passes() []Pass {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pass, len(s.passes))
	for i, p := range s.passes {
		out[i] = *p
		out[i].Steps = append([]int(nil), p.Steps...)
		out[i].Resubscribed = append([]int(nil), p.Resubscribed...)
	}
	return out
}

// PassCount returns the number of recorded passes.
func (s *Spy) PassCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.passes)
}

// StepCount returns how often the step at level was applied.
func (s *Spy) StepCount(level int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.passes {
		for _, l := range p.Steps {
			if l == level {
				n++
			}
		}
	}
	return n
}

// TotalSteps returns how many steps were applied over all passes.
func (s *Spy) TotalSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.passes {
		n += len(p.Steps)
	}
	return n
}

// ResubscribeCount returns how often the cell tracked at level was replaced.
func (s *Spy) ResubscribeCount(level int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.passes {
		for _, l := range p.Resubscribed {
			if l == level {
				n++
			}
		}
	}
	return n
}

// Last returns the most recent pass.
func (s *Spy) Last() (Pass, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.passes) == 0 {
		return Pass{}, false
	}
	return *s.passes[len(s.passes)-1], true
}

// Reset forgets every recorded pass.
func (s *Spy) Reset() {
	s.mu.Lock()
	s.passes = nil
	s.mu.Unlock()
}

type spyPass struct {
	spy  *Spy
	pass *Pass
}

func (p *spyPass) StepApplied(level int) {
	p.spy.mu.Lock()
	p.pass.Steps = append(p.pass.Steps, level)
	p.spy.mu.Unlock()
}

func (p *spyPass) Resubscribed(level int) {
	p.spy.mu.Lock()
	p.pass.Resubscribed = append(p.pass.Resubscribed, level)
	p.spy.mu.Unlock()
}

func (p *spyPass) End(result nesting.PassResult) {
	p.spy.mu.Lock()
	p.pass.Result = result
	p.pass.Ended = true
	p.spy.mu.Unlock()
}
