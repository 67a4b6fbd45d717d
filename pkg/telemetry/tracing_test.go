package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nipafx/LibFX-sub001/pkg/cell"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

type recordedSpan struct {
	noop.Span

	name   string
	attrs  map[attribute.Key]attribute.Value
	events []string
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordedSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

type recordingTracer struct {
	embedded.Tracer
	spans []*recordedSpan
}

func (tr *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordedSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	span.SetAttributes(cfg.Attributes()...)
	tr.spans = append(tr.spans, span)
	return trace.ContextWithSpan(ctx, span), span
}

type recordingProvider struct {
	embedded.TracerProvider
	tracer *recordingTracer
	names  []string
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.names = append(p.names, name)
	return p.tracer
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

func TestOpenTelemetrySpanPerPass(t *testing.T) {
	provider := newRecordingProvider()
	tracing := OpenTelemetry(WithTracerProvider(provider), WithTracerName("test/nesting"))

	c := newChain()
	d, err := nesting.NewDeep[string, *cell.Cell[string]](c.outer, c.steps(),
		nesting.WithName("demo"), nesting.WithObserver(tracing))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Dispose()

	if len(provider.names) != 1 || provider.names[0] != "test/nesting" {
		t.Errorf("expected tracer %q, got %v", "test/nesting", provider.names)
	}

	spans := provider.tracer.spans
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.name != "nesting.pass demo" {
		t.Errorf("expected span name %q, got %q", "nesting.pass demo", s.name)
	}
	if !s.ended {
		t.Error("expected the span to end")
	}
	if s.status != codes.Ok {
		t.Errorf("expected status Ok, got %v", s.status)
	}
	if got := s.attrs["nesting.depth"].AsInt64(); got != 2 {
		t.Errorf("expected depth 2, got %d", got)
	}
	if got := s.attrs["nesting.steps_applied"].AsInt64(); got != 2 {
		t.Errorf("expected 2 steps applied, got %d", got)
	}
	if got := s.attrs["nesting.outcome"].AsString(); got != OutcomePresent {
		t.Errorf("expected outcome %q, got %q", OutcomePresent, got)
	}
	want := []string{"step.applied", "level.resubscribed", "step.applied"}
	if len(s.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, s.events)
	}
	for i := range want {
		if s.events[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], s.events[i])
		}
	}

	c.cells["a"].SetValue("y")
	if len(provider.tracer.spans) != 2 {
		t.Fatalf("expected a second span, got %d", len(provider.tracer.spans))
	}
	if got := provider.tracer.spans[1].attrs["nesting.start_level"].AsInt64(); got != 1 {
		t.Errorf("expected the pass to start at level 1, got %d", got)
	}
}

func TestOpenTelemetryWithoutStepEvents(t *testing.T) {
	provider := newRecordingProvider()
	tracing := OpenTelemetry(WithTracerProvider(provider), WithStepEvents(false))

	c := newChain()
	d, err := nesting.NewDeep[string, *cell.Cell[string]](c.outer, c.steps(), nesting.WithObserver(tracing))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Dispose()

	if events := provider.tracer.spans[0].events; len(events) != 0 {
		t.Errorf("expected no span events, got %v", events)
	}
	if provider.names[0] != defaultTracerName {
		t.Errorf("expected default tracer name, got %q", provider.names[0])
	}
}

func TestOpenTelemetryRecordsPanic(t *testing.T) {
	provider := newRecordingProvider()
	tracing := OpenTelemetry(WithTracerProvider(provider))
	boom := errors.New("boom")

	outer := cell.New(0)
	steps := []nesting.Step{nesting.NextCell(func(v int) *cell.Cell[int] {
		if v < 0 {
			panic(boom)
		}
		return cell.New(v)
	})}
	d, err := nesting.NewDeep[int, *cell.Cell[int]](outer, steps, nesting.WithObserver(tracing))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Dispose()

	func() {
		defer func() { _ = recover() }()
		outer.SetValue(-1)
	}()

	s := provider.tracer.spans[len(provider.tracer.spans)-1]
	if s.status != codes.Error {
		t.Errorf("expected status Error, got %v", s.status)
	}
	if len(s.errs) != 1 || !errors.Is(s.errs[0], boom) {
		t.Errorf("expected the panic to be recorded, got %v", s.errs)
	}
	if !s.ended {
		t.Error("expected the span to end")
	}
}

func TestOpenTelemetryGlobalProvider(t *testing.T) {
	// The global provider is a no-op until configured; passes must still run.
	tracing := OpenTelemetry()
	c := newChain()
	d, err := nesting.NewDeep[string, *cell.Cell[string]](c.outer, c.steps(), nesting.WithObserver(tracing))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Dispose()
}
