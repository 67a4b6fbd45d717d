package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nipafx/LibFX-sub001/internal/errors"
	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/nestingtrace"
	"github.com/nipafx/LibFX-sub001/pkg/telemetry"
)

// absentInner is how traces show a missing inner cell.
const absentInner = "-"

// Entry is the state after one operation. The first entry of a run is the
// "start" entry, covering construction and activation.
type Entry struct {
	Index        int      `json:"index"`
	Op           string   `json:"op"`
	Inner        string   `json:"inner"`
	Bound        string   `json:"bound,omitempty"`
	Events       []string `json:"events,omitempty"`
	Passes       int      `json:"passes"`
	Steps        []int    `json:"steps,omitempty"`
	Resubscribed []int    `json:"resubscribed,omitempty"`
	Panic        string   `json:"panic,omitempty"`
	Failures     []string `json:"failures,omitempty"`
}

// Result is the outcome of one run.
type Result struct {
	RunID    string   `json:"runId"`
	Scenario string   `json:"scenario"`
	Entries  []Entry  `json:"entries"`
	Failures []string `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Err returns an S006 error listing the failures, or nil.
func (r *Result) Err() error {
	if r.Passed() {
		return nil
	}
	return errors.New("S006").
		WithDetail(fmt.Sprintf("%s: %s", r.Scenario, strings.Join(r.Failures, "; ")))
}

// Trace renders the entries in a stable text form. The run ID is left out.
func (r *Result) Trace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", r.Scenario)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "[%d] %s\n", e.Index, e.Op)
		fmt.Fprintf(&b, "    inner: %s\n", e.Inner)
		if e.Bound != "" {
			fmt.Fprintf(&b, "    bound: %s\n", e.Bound)
		}
		fmt.Fprintf(&b, "    passes: %d", e.Passes)
		if len(e.Steps) > 0 {
			fmt.Fprintf(&b, "  steps: %s", joinInts(e.Steps))
		}
		if len(e.Resubscribed) > 0 {
			fmt.Fprintf(&b, "  resubscribed: %s", joinInts(e.Resubscribed))
		}
		b.WriteString("\n")
		if len(e.Events) > 0 {
			fmt.Fprintf(&b, "    events: %s\n", strings.Join(e.Events, ", "))
		}
		if e.Panic != "" {
			fmt.Fprintf(&b, "    panic: %s\n", e.Panic)
		}
		for _, f := range e.Failures {
			fmt.Fprintf(&b, "    FAIL %s\n", f)
		}
	}
	if r.Passed() {
		b.WriteString("result: pass\n")
	} else {
		fmt.Fprintf(&b, "result: FAIL (%d)\n", len(r.Failures))
	}
	return b.String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

// Runner executes scenarios.
type Runner struct {
	logger   *slog.Logger
	observer nesting.Observer
	newID    func() string
	onEntry  func(Entry)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger handed to the nesting and the runner itself.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver adds an observer, such as telemetry.Prometheus, to every
// nesting the runner builds.
func WithObserver(observer nesting.Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithRunID replaces the UUIDv7 run ID generator.
func WithRunID(fn func() string) RunnerOption {
	return func(r *Runner) {
		r.newID = fn
	}
}

// WithEntryHook calls fn with every entry as soon as it is recorded.
func WithEntryHook(fn func(Entry)) RunnerOption {
	return func(r *Runner) {
		r.onEntry = fn
	}
}

// NewRunner returns a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.newID == nil {
		r.newID = func() string {
			return uuid.Must(uuid.NewV7()).String()
		}
	}
	return r
}

type innerCell = cell.MutableReactiveCell[any]

// run is the live state of one scenario execution.
type run struct {
	sc       *Scenario
	world    *world
	spy      *nestingtrace.Spy
	recorder *nestingtrace.Recorder[innerCell]
	nesting  nesting.Nesting[innerCell]
	target   *cell.Cell[any]
	result   *Result
	hook     func(Entry)
}

// Run executes sc. Failed expectations are reported in the result; the
// error is for scenarios that cannot be set up and for ctx cancellation,
// in which case the partial result is returned as well.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	w := build(sc)
	spy := nestingtrace.NewSpy()
	opts := []nesting.Option{
		nesting.WithName(sc.Name),
		nesting.WithLogger(r.logger),
		nesting.WithObserver(telemetry.Combine(spy, r.observer)),
	}

	n, err := nesting.New[any, innerCell](w.cells[sc.Chain.Outer], w.steps(sc.Chain.Steps), opts...)
	if err != nil {
		return nil, setupError(sc, err)
	}

	ru := &run{
		sc:       sc,
		world:    w,
		spy:      spy,
		recorder: nestingtrace.NewRecorder[innerCell](w.names.Of),
		nesting:  n,
		result:   &Result{RunID: r.newID(), Scenario: sc.Name},
		hook:     r.onEntry,
	}

	var detector *nesting.EdgeDetector[innerCell]
	if sc.Bind != nil {
		ru.target = cell.New(w.value(sc.Bind.Initial))
		w.names.Add("target", ru.target)
		sync, err := nesting.NewCellSync[any](n, ru.target, policy(w, sc.Bind), opts...)
		if err != nil {
			n.Dispose()
			return nil, setupError(sc, err)
		}
		detector = sync.Detector()
		defer sync.Stop()
	} else {
		detector, err = nesting.NewEdgeDetector(n, opts...)
		if err != nil {
			n.Dispose()
			return nil, setupError(sc, err)
		}
		defer detector.Stop()
	}
	ru.recorder.Attach(detector)

	r.logger.Info("scenario started", "scenario", sc.Name, "run", ru.result.RunID, "depth", len(sc.Chain.Steps))

	entry := Entry{Op: "start"}
	entry.Panic = guard(func() {
		if err := detector.Start(); err != nil {
			panic(err)
		}
	})
	ru.record(entry, nil)

	for i, op := range sc.Script {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("scenario cancelled", "scenario", sc.Name, "run", ru.result.RunID, "op", i)
			return ru.result, err
		}
		entry := Entry{Index: i + 1, Op: ru.describeOp(op)}
		entry.Panic = guard(func() { ru.apply(op) })
		ru.record(entry, op.Expect)
	}

	if sc.Expect != nil {
		last := ru.result.Entries[len(ru.result.Entries)-1]
		for _, f := range ru.check(*sc.Expect, last) {
			ru.result.Failures = append(ru.result.Failures, "final: "+f)
		}
	}

	r.logger.Info("scenario finished",
		"scenario", sc.Name,
		"run", ru.result.RunID,
		"entries", len(ru.result.Entries),
		"passed", ru.result.Passed(),
	)
	return ru.result, nil
}

func policy(w *world, b *Bind) nesting.AbsentValue[any] {
	switch b.Absent {
	case AbsentDefault:
		return nesting.Default(w.value(b.Default))
	case AbsentDefaultOnFirst:
		return nesting.DefaultOnFirst(w.value(b.Default))
	}
	return nesting.KeepLast[any]()
}

// guard runs fn and returns the formatted panic value, if any.
func guard(fn func()) (panicked string) {
	defer func() {
		if r := recover(); r != nil {
			panicked = fmt.Sprint(r)
		}
	}()
	fn()
	return ""
}

func (ru *run) apply(op Op) {
	if op.Set != "" {
		ru.world.cells[op.Set].SetValue(ru.world.value(op.Value))
		return
	}
	ru.target.SetValue(ru.world.value(*op.Write))
}

func (ru *run) describeOp(op Op) string {
	if op.Set != "" {
		return fmt.Sprintf("set %s = %s", op.Set, ru.world.describe(ru.world.value(op.Value)))
	}
	return "write " + ru.world.describe(ru.world.value(*op.Write))
}

// record completes e from the current state, checks expect and resets the
// per-operation recorders.
func (ru *run) record(e Entry, expect *Expect) {
	e.Inner = absentInner
	if inner, ok := ru.nesting.Inner().Value().Get(); ok {
		e.Inner = ru.world.names.Of(inner)
	}
	if ru.target != nil {
		e.Bound = ru.world.describe(ru.target.Value())
	}
	e.Events = ru.recorder.Events()
	for _, p := range ru.spy.Passes() {
		e.Passes++
		e.Steps = append(e.Steps, p.Steps...)
		e.Resubscribed = append(e.Resubscribed, p.Resubscribed...)
	}

	if expect != nil {
		e.Failures = ru.check(*expect, e)
		for _, f := range e.Failures {
			ru.result.Failures = append(ru.result.Failures, fmt.Sprintf("[%d] %s", e.Index, f))
		}
	}

	ru.spy.Reset()
	ru.recorder.Reset()
	ru.result.Entries = append(ru.result.Entries, e)
	if ru.hook != nil {
		ru.hook(e)
	}
}

func (ru *run) check(x Expect, e Entry) []string {
	var failures []string
	if x.Inner != nil && *x.Inner != e.Inner {
		failures = append(failures, fmt.Sprintf("inner: expected %s, got %s", *x.Inner, e.Inner))
	}
	if x.Bound != nil {
		if want := ru.world.describe(ru.world.value(*x.Bound)); want != e.Bound {
			failures = append(failures, fmt.Sprintf("bound: expected %s, got %s", want, e.Bound))
		}
	}
	if x.Events != nil && !slices.Equal(*x.Events, e.Events) {
		failures = append(failures, fmt.Sprintf("events: expected [%s], got [%s]",
			strings.Join(*x.Events, ", "), strings.Join(e.Events, ", ")))
	}
	if x.Passes != nil && *x.Passes != e.Passes {
		failures = append(failures, fmt.Sprintf("passes: expected %d, got %d", *x.Passes, e.Passes))
	}
	if x.Steps != nil && *x.Steps != len(e.Steps) {
		failures = append(failures, fmt.Sprintf("steps: expected %d, got %d", *x.Steps, len(e.Steps)))
	}
	return failures
}

// setupError reports a nesting that could not be built for sc.
func setupError(sc *Scenario, err error) error {
	return errors.New("S005").WithDetail(sc.Name + ": " + err.Error()).Wrap(err)
}
