package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/nipafx/LibFX-sub001/internal/config"
	"github.com/nipafx/LibFX-sub001/internal/errors"
	"github.com/nipafx/LibFX-sub001/internal/scenario"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
	"github.com/nipafx/LibFX-sub001/pkg/telemetry"
)

const configFileName = config.ConfigFileName

// app is the state shared by all commands, built once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configDir string
	logLevel  string
	noColor   bool

	// compactErrors prints the final error on one line.
	compactErrors bool

	cfg      *config.Config
	logger   *slog.Logger
	loader   *scenario.Loader
	registry *prometheus.Registry
	observer nesting.Observer
}

func (a *app) setup(ctx context.Context) error {
	errors.SetColors(!a.noColor)

	cfg, err := config.LoadOrDefault(a.configDir)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(a.stderr)

	objects, err := scenario.NewS3Client(ctx, cfg.Scenarios.S3)
	if err != nil {
		return err
	}
	a.loader = scenario.NewLoader(
		scenario.WithObjectAPI(objects),
		scenario.WithLoaderLogger(a.logger),
	)

	a.registry = prometheus.NewRegistry()
	a.observer = telemetry.Combine(
		telemetry.Prometheus(
			telemetry.WithRegistry(a.registry),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithSubsystem(cfg.Metrics.Subsystem),
		),
		telemetry.OpenTelemetry(
			telemetry.WithTracerProvider(otel.GetTracerProvider()),
			telemetry.WithTracerName(cfg.Tracing.TracerName),
		),
		telemetry.Log(a.logger),
	)
	return nil
}

// printError prints the error a command returned.
func (a *app) printError(err error) {
	if a.compactErrors {
		errors.PrintCompact(a.stderr, err)
		return
	}
	errors.Print(a.stderr, err)
}

// sources expands args, or the configured scenario path without args, to
// scenario sources.
func (a *app) sources(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{a.cfg.ScenarioPath()}
	}
	var out []string
	for _, arg := range args {
		found, err := a.loader.List(ctx, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, errors.New("S001").WithDetail("no scenarios found in " + strings.Join(args, ", "))
	}
	return out, nil
}

func (a *app) runner() *scenario.Runner {
	return scenario.NewRunner(
		scenario.WithLogger(a.logger),
		scenario.WithObserver(a.observer),
	)
}
