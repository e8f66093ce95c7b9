// Package config provides configuration loading and management for storysynth.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/storysynth/export"
	"github.com/c360studio/storysynth/metrics"
	"github.com/c360studio/storysynth/runner"
	"github.com/c360studio/storysynth/workflow/synthesis"
)

// Config represents the complete storysynth configuration
type Config struct {
	Synthesis synthesis.Config `yaml:"synthesis"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Runner    runner.Config    `yaml:"runner"`
	Output    OutputConfig     `yaml:"output"`
	Watch     WatchConfig      `yaml:"watch"`
}

// MetricsConfig configures the node metrics collector
type MetricsConfig struct {
	// WindowSize is the number of duration samples kept per node
	WindowSize int `yaml:"window_size"`
	// FailureRateThreshold fires a warning when a node's failure rate exceeds it (unset = off)
	FailureRateThreshold *float64 `yaml:"failure_rate_threshold,omitempty"`
	// LatencyThresholdMs fires a warning when a node's p99 exceeds it (unset = off)
	LatencyThresholdMs *float64 `yaml:"latency_threshold_ms,omitempty"`
}

// OutputConfig configures where synthesized artifacts are written
type OutputConfig struct {
	// Dir is the artifact directory (empty = write to stdout)
	Dir string `yaml:"dir"`
	// Format is json or yaml
	Format export.Format `yaml:"format"`
	// Compress writes zstd-compressed JSON
	Compress bool `yaml:"compress"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// DebounceDelay coalesces bursts of writes to the same bundle
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Synthesis: synthesis.DefaultConfig(),
		Metrics: MetricsConfig{
			WindowSize: metrics.DefaultWindowSize,
		},
		Runner: runner.DefaultConfig(),
		Output: OutputConfig{
			Format: export.FormatJSON,
		},
		Watch: WatchConfig{
			DebounceDelay: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	if err := c.Synthesis.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("synthesis: %w", err))
	}
	if err := c.Runner.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("runner: %w", err))
	}
	if c.Metrics.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("metrics.window_size must be at least 1"))
	}
	if t := c.Metrics.FailureRateThreshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, fmt.Errorf("metrics.failure_rate_threshold must be between 0 and 1"))
	}
	if t := c.Metrics.LatencyThresholdMs; t != nil && *t < 0 {
		errs = append(errs, fmt.Errorf("metrics.latency_threshold_ms must not be negative"))
	}
	if !c.Output.Format.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid (want json or yaml)", c.Output.Format))
	}
	if c.Watch.DebounceDelay < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_delay must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.ApplyFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyFile decodes a YAML file over c. Only keys present in the file
// override, so a file can switch a boolean off without restating the rest.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CollectorConfig builds the metrics collector settings. Threshold callbacks
// are left for the caller to attach.
func (m MetricsConfig) CollectorConfig() metrics.CollectorConfig {
	return metrics.CollectorConfig{
		WindowSize: m.WindowSize,
		Thresholds: metrics.ThresholdConfig{
			FailureRateThreshold: m.FailureRateThreshold,
			LatencyThresholdMs:   m.LatencyThresholdMs,
		},
	}
}
