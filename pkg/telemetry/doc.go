// Package telemetry provides nesting.Observer implementations that export
// propagation passes to Prometheus, OpenTelemetry and log/slog.
//
// Observers are attached per nesting and may be combined:
//
//	metrics := telemetry.Prometheus(telemetry.WithNamespace("myapp"))
//	tracing := telemetry.OpenTelemetry(telemetry.WithTracerName("myapp/nesting"))
//
//	n, err := nesting.New[*Person, *cell.Cell[string]](person, steps,
//	    nesting.WithName("person-street"),
//	    nesting.WithObserver(telemetry.Combine(metrics, tracing)),
//	)
//
// All labels and span attributes carry the nesting name set with
// nesting.WithName, so keep names low-cardinality.
package telemetry
