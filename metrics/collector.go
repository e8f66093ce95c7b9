package metrics

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

// ErrorCategory classifies a node failure for the typed error tallies.
type ErrorCategory string

// The closed set of failure categories. Anything else is counted as other.
const (
	ErrorTimeout    ErrorCategory = "timeout"
	ErrorValidation ErrorCategory = "validation"
	ErrorNetwork    ErrorCategory = "network"
	ErrorOther      ErrorCategory = "other"
)

// Normalize maps unknown or empty categories to ErrorOther.
func (c ErrorCategory) Normalize() ErrorCategory {
	switch c {
	case ErrorTimeout, ErrorValidation, ErrorNetwork:
		return c
	default:
		return ErrorOther
	}
}

// NodeMetrics is a point-in-time snapshot of one node's telemetry.
// Durations are plain milliseconds.
type NodeMetrics struct {
	TotalExecutions  int      `json:"total_executions"`
	SuccessCount     int      `json:"success_count"`
	FailureCount     int      `json:"failure_count"`
	RetryCount       int      `json:"retry_count"`
	LastExecutionMs  *float64 `json:"last_execution_ms"`
	AvgExecutionMs   float64  `json:"avg_execution_ms"`
	P50              *float64 `json:"p50"`
	P90              *float64 `json:"p90"`
	P99              *float64 `json:"p99"`
	TimeoutErrors    int      `json:"timeout_errors"`
	ValidationErrors int      `json:"validation_errors"`
	NetworkErrors    int      `json:"network_errors"`
	OtherErrors      int      `json:"other_errors"`
}

// SerializedMetrics is the export shape: node name to metrics snapshot.
type SerializedMetrics map[string]NodeMetrics

// FailureRateCallback is invoked when a node's failure rate exceeds the
// configured threshold.
type FailureRateCallback func(node string, rate float64)

// LatencyCallback is invoked when a node's p99 exceeds the configured
// threshold.
type LatencyCallback func(node string, p99 float64)

// ThresholdConfig configures threshold notifications. A nil threshold disables
// its check entirely; a nil callback makes a configured check a no-op.
type ThresholdConfig struct {
	FailureRateThreshold   *float64
	LatencyThresholdMs     *float64
	OnFailureRateThreshold FailureRateCallback
	OnLatencyThreshold     LatencyCallback
}

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	// WindowSize is the number of duration samples kept per node (default 100).
	WindowSize int
	Thresholds ThresholdConfig
	Logger     *slog.Logger
}

// nodeState is the mutable per-node record. Its mutex guards every field.
type nodeState struct {
	mu               sync.Mutex
	totalExecutions  int
	successCount     int
	failureCount     int
	retryCount       int
	lastExecutionMs  *float64
	timeoutErrors    int
	validationErrors int
	networkErrors    int
	otherErrors      int
	window           *RollingWindow[float64]
}

func (s *nodeState) snapshot() NodeMetrics {
	samples := s.window.Values()
	pct := Percentiles(samples)
	var last *float64
	if s.lastExecutionMs != nil {
		v := *s.lastExecutionMs
		last = &v
	}
	return NodeMetrics{
		TotalExecutions:  s.totalExecutions,
		SuccessCount:     s.successCount,
		FailureCount:     s.failureCount,
		RetryCount:       s.retryCount,
		LastExecutionMs:  last,
		AvgExecutionMs:   s.window.Mean(),
		P50:              pct.P50,
		P90:              pct.P90,
		P99:              pct.P99,
		TimeoutErrors:    s.timeoutErrors,
		ValidationErrors: s.validationErrors,
		NetworkErrors:    s.networkErrors,
		OtherErrors:      s.otherErrors,
	}
}

// Collector aggregates execution metrics per node. The node map is guarded by
// mu; each entry has its own lock, so recording for one node never blocks
// recording for another once both entries exist.
type Collector struct {
	mu         sync.RWMutex
	nodes      map[string]*nodeState
	windowSize int
	thresholds ThresholdConfig
	logger     *slog.Logger
}

// NewCollector creates a collector with the given configuration.
func NewCollector(cfg CollectorConfig) *Collector {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Collector{
		nodes:      make(map[string]*nodeState),
		windowSize: cfg.WindowSize,
		thresholds: cfg.Thresholds,
		logger:     cfg.Logger,
	}
}

// WindowSize returns the per-node sample capacity.
func (c *Collector) WindowSize() int {
	return c.windowSize
}

func (c *Collector) getOrCreate(node string) *nodeState {
	c.mu.RLock()
	state, ok := c.nodes[node]
	c.mu.RUnlock()
	if ok {
		return state
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.nodes[node]; ok {
		return state
	}
	state = &nodeState{window: NewRollingWindow[float64](c.windowSize)}
	c.nodes[node] = state
	return state
}

func (c *Collector) normalizeDuration(node string, durationMs float64) float64 {
	if durationMs < 0 || math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		c.logger.Warn("Invalid duration recorded, clamping to 0",
			"node", node,
			"duration_ms", durationMs)
		return 0
	}
	return durationMs
}

// RecordSuccess records a successful execution of node.
func (c *Collector) RecordSuccess(node string, durationMs float64) {
	d := c.normalizeDuration(node, durationMs)
	state := c.getOrCreate(node)

	state.mu.Lock()
	state.totalExecutions++
	state.successCount++
	state.lastExecutionMs = &d
	state.window.Add(d)
	p99 := Percentiles(state.window.Values()).P99
	state.mu.Unlock()

	c.checkLatency(node, p99)
}

// RecordFailure records a failed execution of node. err is accepted for
// call-site symmetry and logged at debug level; category selects the error
// tally and defaults to ErrorOther.
func (c *Collector) RecordFailure(node string, durationMs float64, err error, category ErrorCategory) {
	d := c.normalizeDuration(node, durationMs)
	category = category.Normalize()
	state := c.getOrCreate(node)

	state.mu.Lock()
	state.totalExecutions++
	state.failureCount++
	state.lastExecutionMs = &d
	switch category {
	case ErrorTimeout:
		state.timeoutErrors++
	case ErrorValidation:
		state.validationErrors++
	case ErrorNetwork:
		state.networkErrors++
	default:
		state.otherErrors++
	}
	state.window.Add(d)
	rate := float64(state.failureCount) / float64(state.totalExecutions)
	p99 := Percentiles(state.window.Values()).P99
	state.mu.Unlock()

	if err != nil {
		c.logger.Debug("Node failure recorded",
			"node", node,
			"category", string(category),
			"error", err)
	}

	c.checkFailureRate(node, rate)
	c.checkLatency(node, p99)
}

// RecordRetry counts a retry attempt. Execution counts, the duration window
// and thresholds are unaffected.
func (c *Collector) RecordRetry(node string, attempt int) {
	state := c.getOrCreate(node)

	state.mu.Lock()
	state.retryCount++
	state.mu.Unlock()

	c.logger.Debug("Node retry recorded", "node", node, "attempt", attempt)
}

func (c *Collector) checkFailureRate(node string, rate float64) {
	t := c.thresholds
	if t.FailureRateThreshold == nil || t.OnFailureRateThreshold == nil {
		return
	}
	if rate > *t.FailureRateThreshold {
		t.OnFailureRateThreshold(node, rate)
	}
}

func (c *Collector) checkLatency(node string, p99 *float64) {
	t := c.thresholds
	if t.LatencyThresholdMs == nil || t.OnLatencyThreshold == nil || p99 == nil {
		return
	}
	if *p99 > *t.LatencyThresholdMs {
		t.OnLatencyThreshold(node, *p99)
	}
}

// NodeMetrics returns a snapshot for node. Unknown nodes read back as zero
// state with nil duration fields.
func (c *Collector) NodeMetrics(node string) NodeMetrics {
	c.mu.RLock()
	state, ok := c.nodes[node]
	c.mu.RUnlock()
	if !ok {
		return NodeMetrics{}
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.snapshot()
}

// AllNodeMetrics returns a snapshot of every node recorded since the last
// reset.
func (c *Collector) AllNodeMetrics() map[string]NodeMetrics {
	c.mu.RLock()
	states := make(map[string]*nodeState, len(c.nodes))
	for name, state := range c.nodes {
		states[name] = state
	}
	c.mu.RUnlock()

	out := make(map[string]NodeMetrics, len(states))
	for name, state := range states {
		state.mu.Lock()
		out[name] = state.snapshot()
		state.mu.Unlock()
	}
	return out
}

// Reset clears the metrics of a single node.
func (c *Collector) Reset(node string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodes, node)
}

// ResetAll clears the metrics of every node.
func (c *Collector) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = make(map[string]*nodeState)
}

// Snapshot returns a plain, JSON-serialisable copy of all node metrics.
func (c *Collector) Snapshot() SerializedMetrics {
	return SerializedMetrics(c.AllNodeMetrics())
}

// MarshalJSON encodes the collector as its Snapshot.
func (c *Collector) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}
