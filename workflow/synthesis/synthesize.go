package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MissingSeedError is the error reported when no seed is supplied.
const MissingSeedError = "Story seed is required for synthesis"

// Synthesizer runs the synthesis pipeline.
type Synthesizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithClock sets the time source used for synthesized_at and committed_at.
func WithClock(now func() time.Time) SynthesizerOption {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize runs the pipeline with a default Synthesizer.
func Synthesize(ctx context.Context, in Inputs, cfg Config) Result {
	return NewSynthesizer().Synthesize(ctx, in, cfg)
}

// Synthesize merges the inputs into a validated SynthesizedStory.
//
// It never returns an error or panics: failures are reported through
// Result.Error with Synthesized set to false. ctx is only checked on entry;
// synthesis itself does no I/O. Caps left at zero in cfg take their defaults.
func (s *Synthesizer) Synthesize(ctx context.Context, in Inputs, cfg Config) (result Result) {
	warnings := []string{}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Synthesis panicked", "panic", r)
			result = failed(fmt.Sprintf("synthesis panicked: %v", r), warnings)
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(fmt.Sprintf("synthesis cancelled: %v", err), warnings)
	}
	if in.Seed == nil {
		return failed(MissingSeedError, warnings)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return failed(fmt.Sprintf("invalid synthesis config: %v", err), warnings)
	}

	consolidated := ConsolidateInputs(in)
	warnings = append(warnings, consolidated.Warnings...)

	acs := GenerateFinalACs(in.Seed, in.Gaps, cfg)
	nonGoals := GenerateNonGoals(in.Seed, in.Attacks, in.Gaps, cfg)
	hints := GenerateTestHints(in.Gaps, in.Attacks, cfg)
	unknowns := DocumentKnownUnknowns(in.Readiness, in.Attacks, in.Gaps, in.Seed, cfg)

	now := s.now()
	var commitment *CommitmentBaseline
	if cfg.GenerateCommitmentBaseline {
		commitment = CreateCommitmentBaseline(in.Readiness, in.Baseline, in.Seed, in.Gaps, unknowns, now)
	}

	seed := in.Seed
	synthesized := &SynthesizedStory{
		StoryID:             seed.StoryID,
		Title:               seed.Title,
		Description:         seed.Description,
		Domain:              seed.Domain,
		SynthesizedAt:       now.UTC(),
		AcceptanceCriteria:  acs,
		NonGoals:            nonGoals,
		TestHints:           hints,
		KnownUnknowns:       unknowns,
		Constraints:         cloneStrings(seed.Constraints),
		AffectedFiles:       cloneStrings(seed.AffectedFiles),
		Dependencies:        cloneStrings(seed.Dependencies),
		Tags:                cloneStrings(seed.Tags),
		EstimatedComplexity: seed.EstimatedComplexity,
		CommitmentBaseline:  commitment,
		SynthesisNotes:      synthesisNotes(seed, acs, nonGoals, hints, unknowns, in.Readiness),
	}
	if in.Readiness != nil {
		synthesized.ReadinessScore = in.Readiness.Score
		synthesized.IsReady = in.Readiness.Ready
	}

	if err := synthesized.Validate(); err != nil {
		s.logger.Warn("Synthesized story failed validation",
			"story_id", seed.StoryID,
			"error", err)
		return failed(err.Error(), warnings)
	}

	s.logger.Debug("Story synthesized",
		"story_id", seed.StoryID,
		"acceptance_criteria", len(acs),
		"non_goals", len(nonGoals),
		"test_hints", len(hints),
		"known_unknowns", len(unknowns),
		"warnings", len(warnings))

	return Result{
		SynthesizedStory: synthesized,
		Synthesized:      true,
		Warnings:         warnings,
	}
}

func failed(msg string, warnings []string) Result {
	return Result{
		Synthesized: false,
		Error:       msg,
		Warnings:    warnings,
	}
}
