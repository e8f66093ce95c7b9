package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func testLoader(home, work string) *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)), WithHomeDir(home), WithWorkDir(work))
}

func TestLoaderLayering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "stories", "flow")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
synthesis:
  max_non_goals: 4
  max_test_hints: 5
metrics:
  window_size: 10
`)
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
synthesis:
  max_test_hints: 7
output:
  format: yaml
`)
	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeFile(t, explicit, `
metrics:
  window_size: 25
`)

	cfg, err := testLoader(home, work).Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Synthesis.MaxNonGoals != 4 {
		t.Errorf("expected user max_non_goals 4, got %d", cfg.Synthesis.MaxNonGoals)
	}
	if cfg.Synthesis.MaxTestHints != 7 {
		t.Errorf("expected project max_test_hints 7, got %d", cfg.Synthesis.MaxTestHints)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("expected project format yaml, got %s", cfg.Output.Format)
	}
	if cfg.Metrics.WindowSize != 25 {
		t.Errorf("expected explicit window size 25, got %d", cfg.Metrics.WindowSize)
	}
	if cfg.Synthesis.MaxKnownUnknowns != 10 {
		t.Errorf("expected default max_known_unknowns 10, got %d", cfg.Synthesis.MaxKnownUnknowns)
	}
}

func TestLoaderDefaultsWithoutFiles(t *testing.T) {
	cfg, err := testLoader(t.TempDir(), t.TempDir()).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Synthesis != DefaultConfig().Synthesis {
		t.Errorf("expected default synthesis config, got %+v", cfg.Synthesis)
	}
}

func TestLoaderErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := testLoader(t.TempDir(), t.TempDir()).Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing explicit config")
		}
	})

	t.Run("invalid merged config", func(t *testing.T) {
		work := t.TempDir()
		writeFile(t, filepath.Join(work, ProjectConfigFile), "runner:\n  max_attempts: 0\n")
		if _, err := testLoader(t.TempDir(), work).Load(""); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("malformed user config", func(t *testing.T) {
		home := t.TempDir()
		writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), "synthesis: [\n")
		if _, err := testLoader(home, t.TempDir()).Load(""); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	loader := testLoader(home, t.TempDir())

	path, created, err := loader.EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	if !created {
		t.Error("expected config to be created")
	}
	if path != filepath.Join(home, UserConfigDir, UserConfigFile) {
		t.Errorf("unexpected path %s", path)
	}

	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("created config should load: %v", err)
	}

	_, created, err = loader.EnsureUserConfig()
	if err != nil {
		t.Fatalf("second EnsureUserConfig() error = %v", err)
	}
	if created {
		t.Error("expected existing config to be left alone")
	}
}
