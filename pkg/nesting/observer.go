package nesting

// PassInfo describes a propagation pass as it starts.
type PassInfo struct {
	// Nesting is the name given with WithName.
	Nesting string

	// StartLevel is the level whose cell changed.
	StartLevel int

	// Depth is the number of steps in the chain.
	Depth int
}

// PassResult describes how a propagation pass ended.
type PassResult struct {
	// StopLevel is the level at which the walk stopped. It equals Depth when
	// the walk reached the leaf.
	StopLevel int

	// Published is true when the walk reached the leaf and the inner cell
	// was written. Writing the same leaf again notifies nobody.
	Published bool

	// Present is the presence of the written leaf. Only meaningful when
	// Published is true.
	Present bool

	// Panic holds the value a step panicked with, if any. The panic is
	// re-raised after End returns.
	Panic any
}

// Observer receives instrumentation callbacks from a Deep nesting. All
// calls are synchronous and happen on the goroutine running the pass.
// Passes may nest when a subscriber of the inner cell mutates a chain.
type Observer interface {
	BeginPass(info PassInfo) PassObserver
}

// PassObserver receives the events of one propagation pass.
type PassObserver interface {
	// StepApplied is called after the step at level produced the next cell.
	StepApplied(level int)

	// Resubscribed is called after the subscription at level moved to a new
	// cell (or was dropped because the level became absent).
	Resubscribed(level int)

	// End is called exactly once when the pass finishes.
	End(result PassResult)
}

type noopObserver struct{}

func (noopObserver) BeginPass(PassInfo) PassObserver { return noopPass{} }

type noopPass struct{}

func (noopPass) StepApplied(int) {}
func (noopPass) Resubscribed(int) {}
func (noopPass) End(PassResult) {}
