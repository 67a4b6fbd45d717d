package telemetry

import "github.com/nipafx/LibFX-sub001/pkg/nesting"

// Combine returns an observer that forwards every callback to each non-nil
// observer, in order.
func Combine(observers ...nesting.Observer) nesting.Observer {
	var list []nesting.Observer
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return combined(list)
}

type combined []nesting.Observer

func (c combined) BeginPass(info nesting.PassInfo) nesting.PassObserver {
	passes := make(combinedPass, len(c))
	for i, o := range c {
		passes[i] = o.BeginPass(info)
	}
	return passes
}

type combinedPass []nesting.PassObserver

func (c combinedPass) StepApplied(level int) {
	for _, p := range c {
		p.StepApplied(level)
	}
}

func (c combinedPass) Resubscribed(level int) {
	for _, p := range c {
		p.Resubscribed(level)
	}
}

func (c combinedPass) End(result nesting.PassResult) {
	for _, p := range c {
		p.End(result)
	}
}
