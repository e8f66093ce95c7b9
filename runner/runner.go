// Package runner executes pipeline nodes with per-attempt timeouts, retries
// with exponential backoff, and records every attempt in a metrics.Collector.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/storysynth/metrics"
)

// Config holds execution settings for a Runner.
type Config struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	BackoffBase       time.Duration `yaml:"backoff_base" json:"backoff_base"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// DefaultConfig returns sensible runner defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		Timeout:           30 * time.Second,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.BackoffBase < 0 {
		errs = append(errs, fmt.Errorf("backoff_base must not be negative, got %s", c.BackoffBase))
	}
	if c.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("backoff_multiplier must be at least 1, got %g", c.BackoffMultiplier))
	}
	return errors.Join(errs...)
}

// Backoff returns the wait after the given failed attempt:
// base * multiplier^(attempt-1).
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}
	return time.Duration(float64(c.BackoffBase) * multiplier)
}

// Runner wraps node functions with timeout, retry and metrics recording.
type Runner struct {
	collector *metrics.Collector
	config    Config
	logger    *slog.Logger
}

// New creates a Runner. A nil logger uses slog.Default().
func New(collector *metrics.Collector, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		collector: collector,
		config:    cfg,
		logger:    logger,
	}
}

// Config returns the runner configuration.
func (r *Runner) Config() Config {
	return r.config
}

// Collector returns the collector attempts are recorded in.
func (r *Runner) Collector() *metrics.Collector {
	return r.collector
}

// Execute runs fn as node. Every attempt is recorded as one execution; a retry
// is recorded before each attempt after the first. Validation failures and
// cancellation of ctx end the loop early.
func Execute[T any](ctx context.Context, r *Runner, node string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	executionID := uuid.New().String()
	maxAttempts := max(r.config.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			r.collector.RecordRetry(node, attempt)
		}

		value, elapsed, err := runAttempt(ctx, r.config.Timeout, fn)
		durationMs := float64(elapsed) / float64(time.Millisecond)
		if err == nil {
			r.collector.RecordSuccess(node, durationMs)
			r.logger.Debug("Node executed",
				"node", node,
				"execution_id", executionID,
				"attempt", attempt,
				"duration_ms", durationMs)
			return value, nil
		}

		category := Classify(err)
		r.collector.RecordFailure(node, durationMs, err, category)
		lastErr = err

		if category == metrics.ErrorValidation {
			r.logger.Warn("Node failed validation, not retrying",
				"node", node,
				"execution_id", executionID,
				"attempt", attempt,
				"error", err)
			return zero, fmt.Errorf("node %s: %w", node, err)
		}

		if attempt < maxAttempts {
			backoff := r.config.Backoff(attempt)
			r.logger.Debug("Node failed, retrying",
				"node", node,
				"execution_id", executionID,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"category", string(category),
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("node %s cancelled after %d attempt(s): %w", node, attempt, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	r.logger.Warn("Node failed after all attempts",
		"node", node,
		"execution_id", executionID,
		"attempts", maxAttempts,
		"error", lastErr)
	return zero, fmt.Errorf("node %s failed after %d attempt(s): %w", node, maxAttempts, lastErr)
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, time.Duration, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := fn(attemptCtx)
	return value, time.Since(start), err
}
