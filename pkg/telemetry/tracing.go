package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// Default tracer name for nesting passes.
const defaultTracerName = "libfx/nesting"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "libfx/nesting").
	TracerName string

	// Provider is the tracer provider. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Context is the parent context of every pass span.
	// Default: context.Background()
	Context context.Context

	// StepEvents records a span event per step application and
	// resubscription. Enabled by default.
	StepEvents bool
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = provider
	}
}

// WithParentContext sets the context pass spans are started from.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

// WithStepEvents enables or disables per-step span events.
func WithStepEvents(enabled bool) TracingOption {
	return func(c *TracingConfig) {
		c.StepEvents = enabled
	}
}

// Tracing is a nesting.Observer that records one span per pass.
type Tracing struct {
	tracer     trace.Tracer
	ctx        context.Context
	stepEvents bool
}

// OpenTelemetry creates an observer that traces every propagation pass.
//
// Each span is named "nesting.pass NAME" and carries the start level and
// depth when it starts, the stop level and the publish outcome when it
// ends. A panicking step sets the span status to Error.
func OpenTelemetry(opts ...TracingOption) *Tracing {
	config := TracingConfig{
		TracerName: defaultTracerName,
		StepEvents: true,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerName == "" {
		config.TracerName = defaultTracerName
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}

	return &Tracing{
		tracer:     config.Provider.Tracer(config.TracerName),
		ctx:        config.Context,
		stepEvents: config.StepEvents,
	}
}

// BeginPass implements nesting.Observer.
func (t *Tracing) BeginPass(info nesting.PassInfo) nesting.PassObserver {
	_, span := t.tracer.Start(t.ctx, "nesting.pass "+info.Nesting,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("nesting.name", info.Nesting),
			attribute.Int("nesting.start_level", info.StartLevel),
			attribute.Int("nesting.depth", info.Depth),
		),
	)
	return &tracingPass{span: span, stepEvents: t.stepEvents}
}

type tracingPass struct {
	span       trace.Span
	stepEvents bool
	steps      int
}

func (p *tracingPass) StepApplied(level int) {
	p.steps++
	if p.stepEvents {
		p.span.AddEvent("step.applied", trace.WithAttributes(attribute.Int("nesting.level", level)))
	}
}

func (p *tracingPass) Resubscribed(level int) {
	if p.stepEvents {
		p.span.AddEvent("level.resubscribed", trace.WithAttributes(attribute.Int("nesting.level", level)))
	}
}

func (p *tracingPass) End(result nesting.PassResult) {
	defer p.span.End()

	p.span.SetAttributes(
		attribute.Int("nesting.stop_level", result.StopLevel),
		attribute.Int("nesting.steps_applied", p.steps),
		attribute.Bool("nesting.published", result.Published),
		attribute.Bool("nesting.present", result.Present),
		attribute.String("nesting.outcome", Outcome(result)),
	)

	if result.Panic != nil {
		err, ok := result.Panic.(error)
		if !ok {
			err = fmt.Errorf("step panicked: %v", result.Panic)
		}
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
		return
	}
	p.span.SetStatus(codes.Ok, "")
}
