package synthesis

import (
	"errors"
	"fmt"
)

// Config controls the synthesis caps and feature toggles.
type Config struct {
	// MaxNonGoals caps the non-goal list (default: 10).
	MaxNonGoals int `yaml:"max_non_goals" json:"max_non_goals"`
	// MaxTestHints caps the test hint list (default: 15).
	MaxTestHints int `yaml:"max_test_hints" json:"max_test_hints"`
	// MaxKnownUnknowns caps the known unknown list (default: 10).
	MaxKnownUnknowns int `yaml:"max_known_unknowns" json:"max_known_unknowns"`
	// GenerateCommitmentBaseline enables the commitment snapshot.
	GenerateCommitmentBaseline bool `yaml:"generate_commitment_baseline" json:"generate_commitment_baseline"`
	// EnhanceACs attaches related gaps to seed acceptance criteria.
	EnhanceACs bool `yaml:"enhance_acs" json:"enhance_acs"`
	// MinGapScoreForTestHints is the minimum gap score or edge-case risk
	// score that produces a test hint (1-25, default: 8).
	MinGapScoreForTestHints int `yaml:"min_gap_score_for_test_hints" json:"min_gap_score_for_test_hints"`
}

// DefaultConfig returns a Config with the standard caps.
func DefaultConfig() Config {
	return Config{
		MaxNonGoals:                10,
		MaxTestHints:               15,
		MaxKnownUnknowns:           10,
		GenerateCommitmentBaseline: true,
		EnhanceACs:                 true,
		MinGapScoreForTestHints:    8,
	}
}

// withDefaults fills unset caps from DefaultConfig. A zero Config means no
// config was supplied, so the feature toggles take their defaults as well.
// Negative values are left for Validate to reject.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c == (Config{}) {
		return def
	}
	if c.MaxNonGoals == 0 {
		c.MaxNonGoals = def.MaxNonGoals
	}
	if c.MaxTestHints == 0 {
		c.MaxTestHints = def.MaxTestHints
	}
	if c.MaxKnownUnknowns == 0 {
		c.MaxKnownUnknowns = def.MaxKnownUnknowns
	}
	if c.MinGapScoreForTestHints == 0 {
		c.MinGapScoreForTestHints = def.MinGapScoreForTestHints
	}
	return c
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	var errs []error
	if c.MaxNonGoals <= 0 {
		errs = append(errs, fmt.Errorf("max_non_goals must be positive, got %d", c.MaxNonGoals))
	}
	if c.MaxTestHints <= 0 {
		errs = append(errs, fmt.Errorf("max_test_hints must be positive, got %d", c.MaxTestHints))
	}
	if c.MaxKnownUnknowns <= 0 {
		errs = append(errs, fmt.Errorf("max_known_unknowns must be positive, got %d", c.MaxKnownUnknowns))
	}
	if c.MinGapScoreForTestHints < 1 || c.MinGapScoreForTestHints > 25 {
		errs = append(errs, errors.New("min_gap_score_for_test_hints must be between 1 and 25"))
	}
	return errors.Join(errs...)
}
