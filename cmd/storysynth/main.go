// Package main provides the storysynth binary entry point.
// storysynth merges upstream story analyses (gap hygiene, attack analysis,
// readiness) into a final, schema-validated story artifact.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/storysynth/config"
	"github.com/c360studio/storysynth/export"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "storysynth"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Synthesize final story artifacts from upstream analyses",
		Long: `storysynth consolidates a story seed with its gap hygiene, attack
analysis, readiness and baseline results into one validated artifact with
final acceptance criteria, non-goals, test hints, known unknowns and a
commitment baseline.

Each input bundle is a YAML or JSON file holding any subset of the seed,
gaps, attacks, readiness and baseline sections.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		synthesizeCmd(&flags),
		validateCmd(&flags),
		configCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func synthesizeCmd(flags *globalFlags) *cobra.Command {
	var (
		outDir           string
		format           string
		compress         bool
		maxNonGoals      int
		maxTestHints     int
		maxKnownUnknowns int
		noCommitment     bool
		noEnhanceACs     bool
		minGapScore      int
		metricsMode      string
		watchMode        bool
	)

	cmd := &cobra.Command{
		Use:   "synthesize [bundle files or globs...]",
		Short: "Synthesize story artifacts from input bundles",
		Example: `  storysynth synthesize stories/flow-030.yaml
  storysynth synthesize 'stories/**/*.yaml' --out-dir artifacts --compress
  storysynth synthesize 'stories/*.json' --out-dir artifacts --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			cfg, err := config.NewLoader(logger).Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			f := cmd.Flags()
			if f.Changed("out-dir") {
				cfg.Output.Dir = outDir
			}
			if f.Changed("format") {
				if cfg.Output.Format, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			if f.Changed("compress") {
				cfg.Output.Compress = compress
			}
			if f.Changed("max-non-goals") {
				cfg.Synthesis.MaxNonGoals = maxNonGoals
			}
			if f.Changed("max-test-hints") {
				cfg.Synthesis.MaxTestHints = maxTestHints
			}
			if f.Changed("max-known-unknowns") {
				cfg.Synthesis.MaxKnownUnknowns = maxKnownUnknowns
			}
			if f.Changed("no-commitment-baseline") {
				cfg.Synthesis.GenerateCommitmentBaseline = !noCommitment
			}
			if f.Changed("no-enhance-acs") {
				cfg.Synthesis.EnhanceACs = !noEnhanceACs
			}
			if f.Changed("min-gap-score") {
				cfg.Synthesis.MinGapScoreForTestHints = minGapScore
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			mode, err := parseMetricsMode(metricsMode)
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if watchMode {
				err = app.Watch(ctx, args)
			} else {
				err = app.Run(ctx, args)
			}
			if merr := app.WriteMetrics(mode); merr != nil {
				logger.Warn("Failed to write metrics", "error", merr)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outDir, "out-dir", "o", "", "Directory for artifacts (default: stdout)")
	f.StringVar(&format, "format", "json", "Artifact format (json, yaml)")
	f.BoolVar(&compress, "compress", false, "zstd-compress artifacts written to --out-dir")
	f.IntVar(&maxNonGoals, "max-non-goals", 10, "Maximum non-goals")
	f.IntVar(&maxTestHints, "max-test-hints", 15, "Maximum test hints")
	f.IntVar(&maxKnownUnknowns, "max-known-unknowns", 10, "Maximum known unknowns")
	f.BoolVar(&noCommitment, "no-commitment-baseline", false, "Skip the commitment baseline")
	f.BoolVar(&noEnhanceACs, "no-enhance-acs", false, "Do not enhance acceptance criteria with gap insights")
	f.IntVar(&minGapScore, "min-gap-score", 8, "Minimum gap or risk score for a test hint (1-25)")
	f.StringVar(&metricsMode, "metrics", "none", "Print node metrics to stderr when done (json, prom, none)")
	f.BoolVarP(&watchMode, "watch", "w", false, "Re-synthesize bundles when they change")

	return cmd
}

func validateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <artifact>...",
		Short: "Validate exported artifacts against the synthesized story schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			failed := 0
			for _, path := range args {
				if err := export.ValidateFile(path); err != nil {
					failed++
					logger.Error("Artifact is invalid", "path", path, "error", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d artifact(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage storysynth configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default user config if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			path, created, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			cfg, err := config.NewLoader(logger).Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := export.Marshal(cfg, export.FormatYAML)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// execute runs the root command with args; used by tests.
func execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
