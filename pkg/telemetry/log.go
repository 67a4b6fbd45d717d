package telemetry

import (
	"context"
	"log/slog"

	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// LogObserver is a nesting.Observer that logs one record per pass.
type LogObserver struct {
	logger *slog.Logger
	level  slog.Level
}

// Log returns an observer logging each finished pass at Debug. A nil
// logger means slog.Default().
func Log(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger, level: slog.LevelDebug}
}

// AtLevel returns a copy of o that logs at level.
func (o *LogObserver) AtLevel(level slog.Level) *LogObserver {
	return &LogObserver{logger: o.logger, level: level}
}

// BeginPass implements nesting.Observer.
func (o *LogObserver) BeginPass(info nesting.PassInfo) nesting.PassObserver {
	return &logPass{o: o, info: info}
}

type logPass struct {
	o            *LogObserver
	info         nesting.PassInfo
	steps        []int
	resubscribed []int
}

func (p *logPass) StepApplied(level int) {
	p.steps = append(p.steps, level)
}

func (p *logPass) Resubscribed(level int) {
	p.resubscribed = append(p.resubscribed, level)
}

func (p *logPass) End(result nesting.PassResult) {
	level := p.o.level
	attrs := []slog.Attr{
		slog.String("nesting", p.info.Nesting),
		slog.Int("startLevel", p.info.StartLevel),
		slog.Int("stopLevel", result.StopLevel),
		slog.Any("steps", p.steps),
		slog.Any("resubscribed", p.resubscribed),
		slog.String("outcome", Outcome(result)),
	}
	if result.Panic != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.Any("panic", result.Panic))
	}
	p.o.logger.LogAttrs(context.Background(), level, "nesting pass", attrs...)
}
