package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/storysynth/config"
	"github.com/c360studio/storysynth/export"
	"github.com/c360studio/storysynth/metrics"
	"github.com/c360studio/storysynth/workflow/synthesis"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real user or project config leaks into a test. It returns the absolute
// path of the shared bundle fixture.
func isolate(t *testing.T) string {
	t.Helper()
	fixture, err := filepath.Abs(filepath.Join("..", "..", "story", "testdata", "flow-030.yaml"))
	require.NoError(t, err)

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return fixture
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testApp(t *testing.T, mutate func(*config.Config)) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Runner.BackoffBase = time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	var stdout bytes.Buffer
	app, err := NewApp(cfg, quietLogger(), &stdout, io.Discard)
	require.NoError(t, err)
	return app, &stdout
}

func writeBundle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAppRunToStdout(t *testing.T) {
	fixture := isolate(t)
	app, stdout := testApp(t, nil)

	require.NoError(t, app.Run(context.Background(), []string{fixture}))

	assert.NoError(t, synthesis.ValidateArtifactJSON(stdout.Bytes()))
	var got synthesis.SynthesizedStory
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "flow-030", got.StoryID)
	assert.False(t, got.IsReady)
	assert.Equal(t, 72, got.ReadinessScore)

	m := app.collector.NodeMetrics(NodeSynthesize)
	assert.Equal(t, 1, m.SuccessCount)
	assert.Zero(t, m.FailureCount)
}

func TestAppRunToDirectory(t *testing.T) {
	fixture := isolate(t)
	outDir := t.TempDir()
	app, stdout := testApp(t, func(c *config.Config) {
		c.Output.Dir = outDir
		c.Output.Compress = true
	})

	require.NoError(t, app.Run(context.Background(), []string{fixture}))

	assert.Empty(t, stdout.String())
	path := filepath.Join(outDir, "flow-030.json.zst")
	assert.NoError(t, export.ValidateFile(path))

	s, err := export.Read(path)
	require.NoError(t, err)
	require.NotNil(t, s.CommitmentBaseline)
	assert.Equal(t, []string{"state management", "node factory"}, s.CommitmentBaseline.BaselineConstraints)
}

func TestAppRunRecordsFailures(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	noSeed := writeBundle(t, dir, "no-seed.yaml", "readiness:\n  story_id: flow-1\n  score: 50\n  threshold: 85\n")
	badID := writeBundle(t, dir, "bad-id.json", `{"seed":{"story_id":"FLOW_30","title":"t","description":"d","domain":"x"}}`)
	good := writeBundle(t, dir, "good.yaml", "seed:\n  story_id: flow-2\n  title: t\n  description: d\n  domain: x\n")

	app, stdout := testApp(t, nil)

	err := app.Run(context.Background(), []string{noSeed, badID, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 bundle(s) failed")
	assert.Contains(t, stdout.String(), `"story_id": "flow-2"`)

	m := app.collector.NodeMetrics(NodeSynthesize)
	assert.Equal(t, 3, m.TotalExecutions)
	assert.Equal(t, 2, m.ValidationErrors)
	assert.Zero(t, m.RetryCount, "validation failures are not retried")
}

func TestAppSynthesizeFileUnreadableBundle(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	bad := writeBundle(t, dir, "broken.yaml", "seed: [\n")

	app, _ := testApp(t, nil)
	_, err := app.SynthesizeFile(context.Background(), bad)

	require.Error(t, err)
	assert.Equal(t, 1, app.collector.NodeMetrics(NodeSynthesize).ValidationErrors)
}

func TestAppThresholdCallbacksLog(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	noSeed := writeBundle(t, dir, "no-seed.yaml", "gaps:\n  story_id: flow-1\n")

	var logs bytes.Buffer
	cfg := config.DefaultConfig()
	rate := 0.5
	cfg.Metrics.FailureRateThreshold = &rate
	app, err := NewApp(cfg, slog.New(slog.NewTextHandler(&logs, nil)), io.Discard, io.Discard)
	require.NoError(t, err)

	_ = app.Process(context.Background(), noSeed)

	assert.Contains(t, logs.String(), "Node failure rate above threshold")
	assert.Contains(t, logs.String(), "node="+NodeSynthesize)
}

func TestAppWriteMetrics(t *testing.T) {
	fixture := isolate(t)

	t.Run("json", func(t *testing.T) {
		var stderr bytes.Buffer
		app, err := NewApp(config.DefaultConfig(), quietLogger(), io.Discard, &stderr)
		require.NoError(t, err)
		require.NoError(t, app.Run(context.Background(), []string{fixture}))

		require.NoError(t, app.WriteMetrics(metricsJSON))
		assert.NoError(t, metrics.ValidateSnapshot(bytes.TrimSpace(stderr.Bytes())))

		var snap metrics.SerializedMetrics
		require.NoError(t, json.Unmarshal(stderr.Bytes(), &snap))
		assert.Equal(t, 1, snap[NodeSynthesize].SuccessCount)
	})

	t.Run("prom", func(t *testing.T) {
		var stderr bytes.Buffer
		app, err := NewApp(config.DefaultConfig(), quietLogger(), io.Discard, &stderr)
		require.NoError(t, err)
		require.NoError(t, app.Run(context.Background(), []string{fixture}))

		require.NoError(t, app.WriteMetrics(metricsProm))
		assert.Contains(t, stderr.String(), `storysynth_node_executions_total{node="story_synthesize",outcome="success"} 1`)
	})

	t.Run("none", func(t *testing.T) {
		var stderr bytes.Buffer
		app, err := NewApp(config.DefaultConfig(), quietLogger(), io.Discard, &stderr)
		require.NoError(t, err)
		require.NoError(t, app.WriteMetrics(metricsNone))
		assert.Empty(t, stderr.String())
	})
}

func TestAppWatchResynthesizesOnChange(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	outDir := t.TempDir()
	bundle := writeBundle(t, dir, "flow-7.yaml", "seed:\n  story_id: flow-7\n  title: First\n  description: d\n  domain: x\n")

	app, _ := testApp(t, func(c *config.Config) {
		c.Output.Dir = outDir
		c.Watch.DebounceDelay = 50 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Watch(ctx, []string{filepath.Join(dir, "*.yaml")}) }()

	artifact := filepath.Join(outDir, "flow-7.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(artifact)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	// Give the watcher time to register before rewriting the bundle.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(bundle, []byte("seed:\n  story_id: flow-7\n  title: Second\n  description: d\n  domain: x\n"), 0o644))

	require.Eventually(t, func() bool {
		s, err := export.Read(artifact)
		return err == nil && s.Title == "Second"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestParseMetricsMode(t *testing.T) {
	for _, s := range []string{"json", "prom", "none"} {
		m, err := parseMetricsMode(s)
		require.NoError(t, err)
		assert.Equal(t, metricsMode(s), m)
	}
	_, err := parseMetricsMode("statsd")
	assert.Error(t, err)
}

func TestMain_Commands(t *testing.T) {
	fixture := isolate(t)

	t.Run("version", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, execute(context.Background(), &out, io.Discard, "version"))
		assert.True(t, strings.HasPrefix(out.String(), "storysynth version "+Version))
	})

	t.Run("synthesize and validate", func(t *testing.T) {
		outDir := t.TempDir()
		var stderr bytes.Buffer
		err := execute(context.Background(), io.Discard, &stderr,
			"synthesize", fixture, "--out-dir", outDir, "--format", "yaml", "--max-non-goals", "2", "--metrics", "json", "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, stderr.String(), `"story_synthesize"`)

		path := filepath.Join(outDir, "flow-030.yaml")
		s, err := export.Read(path)
		require.NoError(t, err)
		assert.Len(t, s.NonGoals, 1, "attack quota is half of the cap")

		var out bytes.Buffer
		require.NoError(t, execute(context.Background(), &out, io.Discard, "validate", path))
		assert.Contains(t, out.String(), "✓ "+path)
	})

	t.Run("validate rejects", func(t *testing.T) {
		bad := writeBundle(t, t.TempDir(), "bad.json", `{"story_id":"flow-1"}`)
		err := execute(context.Background(), io.Discard, io.Discard, "validate", bad, "--log-level", "error")
		assert.ErrorContains(t, err, "1 of 1 artifact(s) invalid")
	})

	t.Run("bad flags", func(t *testing.T) {
		err := execute(context.Background(), io.Discard, io.Discard, "synthesize", fixture, "--format", "toml")
		assert.Error(t, err)

		err = execute(context.Background(), io.Discard, io.Discard, "synthesize", fixture, "--min-gap-score", "30")
		assert.ErrorContains(t, err, "min_gap_score_for_test_hints")

		err = execute(context.Background(), io.Discard, io.Discard, "synthesize", fixture, "--metrics", "statsd")
		assert.Error(t, err)
	})

	t.Run("config init and show", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, execute(context.Background(), &out, io.Discard, "config", "init"))
		assert.Contains(t, out.String(), "Created ")

		out.Reset()
		require.NoError(t, execute(context.Background(), &out, io.Discard, "config", "init"))
		assert.Contains(t, out.String(), "already exists")

		out.Reset()
		require.NoError(t, execute(context.Background(), &out, io.Discard, "config", "show"))
		assert.Contains(t, out.String(), "max_test_hints: 15")
	})
}
