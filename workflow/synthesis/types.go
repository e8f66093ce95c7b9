// Package synthesis merges the seed and the upstream story analyses into a
// single validated SynthesizedStory.
//
// Every generator is a pure function of its inputs and the Config. Missing
// analyses degrade the result and produce warnings; only a missing seed, an
// invalid config, a cancelled context or a schema violation fail the call.
package synthesis

import (
	"time"

	"github.com/c360studio/storysynth/story"
)

// NonGoalSource identifies where a non-goal came from.
type NonGoalSource string

const (
	NonGoalFromAttack   NonGoalSource = "attack_analysis"
	NonGoalFromGaps     NonGoalSource = "gap_analysis"
	NonGoalFromBaseline NonGoalSource = "baseline"
	NonGoalManual       NonGoalSource = "manual"
)

// TestCategory is the test-level taxonomy for test hints.
type TestCategory string

const (
	TestUnit        TestCategory = "unit"
	TestIntegration TestCategory = "integration"
	TestE2E         TestCategory = "e2e"
	TestEdgeCase    TestCategory = "edge_case"
	TestPerformance TestCategory = "performance"
	TestSecurity    TestCategory = "security"
)

// UnknownSource identifies where a known unknown was found.
type UnknownSource string

const (
	UnknownFromStory     UnknownSource = "story_content"
	UnknownFromAttack    UnknownSource = "attack_analysis"
	UnknownFromReadiness UnknownSource = "readiness_analysis"
	UnknownFromGaps      UnknownSource = "gap_analysis"
)

// Impact is the effect an unresolved unknown has on implementation.
type Impact string

const (
	ImpactBlocking Impact = "blocking"
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
)

// Priorities run from 1 (highest) to 3.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// FinalAcceptanceCriterion is an acceptance criterion after gap enhancement.
type FinalAcceptanceCriterion struct {
	ID               string   `json:"id" yaml:"id"`
	Description      string   `json:"description" yaml:"description"`
	FromBaseline     bool     `json:"from_baseline" yaml:"from_baseline"`
	BaselineRef      string   `json:"baseline_ref,omitempty" yaml:"baseline_ref,omitempty"`
	EnhancedFromGaps bool     `json:"enhanced_from_gaps" yaml:"enhanced_from_gaps"`
	RelatedGapIDs    []string `json:"related_gap_ids" yaml:"related_gap_ids"`
	Priority         int      `json:"priority" yaml:"priority"`
	TestHint         string   `json:"test_hint,omitempty" yaml:"test_hint,omitempty"`
}

// NonGoal is something explicitly out of scope for the story.
type NonGoal struct {
	ID          string        `json:"id" yaml:"id"`
	Description string        `json:"description" yaml:"description"`
	Reason      string        `json:"reason" yaml:"reason"`
	Source      NonGoalSource `json:"source" yaml:"source"`
	RelatedID   string        `json:"related_id,omitempty" yaml:"related_id,omitempty"`
}

// TestHint suggests a test the implementation should carry.
type TestHint struct {
	ID           string       `json:"id" yaml:"id"`
	Description  string       `json:"description" yaml:"description"`
	Category     TestCategory `json:"category" yaml:"category"`
	Priority     int          `json:"priority" yaml:"priority"`
	RelatedACID  string       `json:"related_ac_id,omitempty" yaml:"related_ac_id,omitempty"`
	RelatedGapID string       `json:"related_gap_id,omitempty" yaml:"related_gap_id,omitempty"`
	Approach     string       `json:"approach,omitempty" yaml:"approach,omitempty"`
}

// KnownUnknown is an uncertainty surfaced for stakeholder attention.
type KnownUnknown struct {
	ID           string        `json:"id" yaml:"id"`
	Description  string        `json:"description" yaml:"description"`
	Source       UnknownSource `json:"source" yaml:"source"`
	Impact       Impact        `json:"impact" yaml:"impact"`
	Resolution   string        `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Acknowledged bool          `json:"acknowledged" yaml:"acknowledged"`
}

// CommitmentBaseline is the state of a story at the moment it was committed.
type CommitmentBaseline struct {
	CommittedAt           time.Time `json:"committed_at" yaml:"committed_at"`
	ReadinessScore        int       `json:"readiness_score" yaml:"readiness_score"`
	WasReady              bool      `json:"was_ready" yaml:"was_ready"`
	BlockingGapsCount     int       `json:"blocking_gaps_count" yaml:"blocking_gaps_count"`
	KnownUnknownsCount    int       `json:"known_unknowns_count" yaml:"known_unknowns_count"`
	BaselineConstraints   []string  `json:"baseline_constraints" yaml:"baseline_constraints"`
	ExpectedAffectedFiles []string  `json:"expected_affected_files" yaml:"expected_affected_files"`
	Dependencies          []string  `json:"dependencies" yaml:"dependencies"`
	CommitmentNotes       string    `json:"commitment_notes,omitempty" yaml:"commitment_notes,omitempty"`
}

// SynthesizedStory is the final story artifact.
type SynthesizedStory struct {
	StoryID             string                     `json:"story_id" yaml:"story_id"`
	Title               string                     `json:"title" yaml:"title"`
	Description         string                     `json:"description" yaml:"description"`
	Domain              string                     `json:"domain" yaml:"domain"`
	SynthesizedAt       time.Time                  `json:"synthesized_at" yaml:"synthesized_at"`
	AcceptanceCriteria  []FinalAcceptanceCriterion `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	NonGoals            []NonGoal                  `json:"non_goals" yaml:"non_goals"`
	TestHints           []TestHint                 `json:"test_hints" yaml:"test_hints"`
	KnownUnknowns       []KnownUnknown             `json:"known_unknowns" yaml:"known_unknowns"`
	Constraints         []string                   `json:"constraints" yaml:"constraints"`
	AffectedFiles       []string                   `json:"affected_files" yaml:"affected_files"`
	Dependencies        []string                   `json:"dependencies" yaml:"dependencies"`
	Tags                []string                   `json:"tags" yaml:"tags"`
	EstimatedComplexity story.Complexity           `json:"estimated_complexity,omitempty" yaml:"estimated_complexity,omitempty"`
	CommitmentBaseline  *CommitmentBaseline        `json:"commitment_baseline,omitempty" yaml:"commitment_baseline,omitempty"`
	ReadinessScore      int                        `json:"readiness_score" yaml:"readiness_score"`
	IsReady             bool                       `json:"is_ready" yaml:"is_ready"`
	SynthesisNotes      string                     `json:"synthesis_notes" yaml:"synthesis_notes"`
}

// Result is the outcome of a synthesis call. Synthesized is false exactly
// when Error is set and SynthesizedStory is nil.
type Result struct {
	SynthesizedStory *SynthesizedStory `json:"synthesized_story" yaml:"synthesized_story"`
	Synthesized      bool              `json:"synthesized" yaml:"synthesized"`
	Error            string            `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings         []string          `json:"warnings" yaml:"warnings"`
}

// Inputs are the upstream analyses for one story. Any field may be nil.
type Inputs struct {
	Seed      *story.StoryStructure
	Gaps      *story.HygieneResult
	Attacks   *story.AttackAnalysis
	Readiness *story.ReadinessResult
	Baseline  *story.BaselineReality
}

// InputsFromBundle adapts a loaded bundle.
func InputsFromBundle(b *story.Bundle) Inputs {
	if b == nil {
		return Inputs{}
	}
	return Inputs{
		Seed:      b.Seed,
		Gaps:      b.Gaps,
		Attacks:   b.Attacks,
		Readiness: b.Readiness,
		Baseline:  b.Baseline,
	}
}

// cloneStrings copies s, returning an empty non-nil slice for nil input so
// artifact arrays never serialise as null.
func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
