package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/storysynth/config"
	"github.com/c360studio/storysynth/export"
	"github.com/c360studio/storysynth/metrics"
	"github.com/c360studio/storysynth/runner"
	"github.com/c360studio/storysynth/story"
	"github.com/c360studio/storysynth/watch"
	"github.com/c360studio/storysynth/workflow/synthesis"
)

// NodeSynthesize is the node name synthesis runs are recorded under.
const NodeSynthesize = "story_synthesize"

// metricsNamespace prefixes exported Prometheus metric names.
const metricsNamespace = "storysynth"

type metricsMode string

const (
	metricsNone metricsMode = "none"
	metricsJSON metricsMode = "json"
	metricsProm metricsMode = "prom"
)

func parseMetricsMode(s string) (metricsMode, error) {
	switch m := metricsMode(s); m {
	case metricsNone, metricsJSON, metricsProm:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported metrics mode %q (want json, prom or none)", s)
	}
}

// App wires the synthesizer, runner, metrics and artifact output together.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	collector   *metrics.Collector
	runner      *runner.Runner
	synthesizer *synthesis.Synthesizer

	// writer is nil when artifacts go to stdout.
	writer *export.Writer
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	collectorCfg := cfg.Metrics.CollectorConfig()
	collectorCfg.Logger = logger
	collectorCfg.Thresholds.OnFailureRateThreshold = func(node string, rate float64) {
		logger.Warn("Node failure rate above threshold",
			"node", node,
			"failure_rate", rate,
			"threshold", *cfg.Metrics.FailureRateThreshold)
	}
	collectorCfg.Thresholds.OnLatencyThreshold = func(node string, p99 float64) {
		logger.Warn("Node p99 latency above threshold",
			"node", node,
			"p99_ms", p99,
			"threshold_ms", *cfg.Metrics.LatencyThresholdMs)
	}
	collector := metrics.NewCollector(collectorCfg)

	app := &App{
		cfg:         cfg,
		logger:      logger,
		stdout:      stdout,
		stderr:      stderr,
		collector:   collector,
		runner:      runner.New(collector, cfg.Runner, logger),
		synthesizer: synthesis.NewSynthesizer(synthesis.WithLogger(logger)),
	}

	if cfg.Output.Dir != "" {
		w, err := export.NewWriter(cfg.Output.Dir, cfg.Output.Format, cfg.Output.Compress, export.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create artifact writer: %w", err)
		}
		app.writer = w
	}

	return app, nil
}

// SynthesizeFile loads one bundle and synthesizes it under the runner.
// Unreadable bundles and failed results are validation failures, so they
// are recorded but not retried.
func (a *App) SynthesizeFile(ctx context.Context, path string) (synthesis.Result, error) {
	return runner.Execute(ctx, a.runner, NodeSynthesize, func(ctx context.Context) (synthesis.Result, error) {
		bundle, err := story.LoadBundle(path)
		if err != nil {
			return synthesis.Result{}, runner.NewValidationError(err)
		}

		result := a.synthesizer.Synthesize(ctx, synthesis.InputsFromBundle(bundle), a.cfg.Synthesis)
		for _, w := range result.Warnings {
			a.logger.Warn("Synthesis warning", "bundle", path, "warning", w)
		}
		if !result.Synthesized {
			return result, runner.NewValidationError(errors.New(result.Error))
		}
		return result, nil
	})
}

// Process synthesizes one bundle and emits its artifact.
func (a *App) Process(ctx context.Context, path string) error {
	result, err := a.SynthesizeFile(ctx, path)
	if err != nil {
		a.logger.Error("Synthesis failed", "bundle", path, "error", err)
		return err
	}
	return a.emit(result.SynthesizedStory)
}

func (a *App) emit(s *synthesis.SynthesizedStory) error {
	if a.writer == nil {
		if a.cfg.Output.Format == export.FormatYAML {
			if _, err := io.WriteString(a.stdout, "---\n"); err != nil {
				return err
			}
		}
		return export.Encode(a.stdout, s, a.cfg.Output.Format, false)
	}

	path, err := a.writer.Write(s)
	if err != nil {
		return fmt.Errorf("write artifact for %s: %w", s.StoryID, err)
	}
	a.logger.Info("Story synthesized",
		"story_id", s.StoryID,
		"ready", s.IsReady,
		"readiness_score", s.ReadinessScore,
		"path", path)
	return nil
}

// Run synthesizes every bundle the patterns resolve to. A failing bundle
// does not stop the others.
func (a *App) Run(ctx context.Context, patterns []string) error {
	paths, err := watch.ResolveBundles(patterns)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.Process(ctx, path); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d bundle(s) failed", failed, len(paths))
	}
	return nil
}

// Watch runs once over the patterns, then re-synthesizes bundles as they
// change until ctx is cancelled.
func (a *App) Watch(ctx context.Context, patterns []string) error {
	if err := a.Run(ctx, patterns); err != nil {
		a.logger.Warn("Initial synthesis incomplete", "error", err)
	}

	w, err := watch.New(watch.Config{
		Patterns:      patterns,
		DebounceDelay: a.cfg.Watch.DebounceDelay,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for ev := range w.Events() {
		switch ev.Operation {
		case watch.OpRemove:
			a.logger.Info("Bundle removed", "bundle", ev.Path)
		default:
			_ = a.Process(ctx, ev.Path)
		}
	}
	return nil
}

// WriteMetrics prints the collector snapshot to stderr.
func (a *App) WriteMetrics(mode metricsMode) error {
	switch mode {
	case metricsJSON:
		data, err := a.collector.ExportJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.stderr, "%s\n", data)
		return err
	case metricsProm:
		reg := prometheus.NewRegistry()
		if err := reg.Register(metrics.NewPrometheusCollector(a.collector, metricsNamespace)); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		return metrics.WriteText(a.stderr, reg)
	default:
		return nil
	}
}
