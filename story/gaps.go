package story

import (
	"strings"
	"time"
)

// GapCategory is the prioritisation bucket of a ranked gap.
type GapCategory string

const (
	// GapMVPBlocking must be resolved before the MVP ships.
	GapMVPBlocking GapCategory = "mvp_blocking"
	// GapMVPImportant should be resolved for the MVP.
	GapMVPImportant GapCategory = "mvp_important"
	// GapFuture can wait for a later iteration.
	GapFuture GapCategory = "future"
	// GapDeferred is tracked but explicitly deferred.
	GapDeferred GapCategory = "deferred"
)

// IsValid returns true if the category is known.
func (c GapCategory) IsValid() bool {
	switch c {
	case GapMVPBlocking, GapMVPImportant, GapFuture, GapDeferred:
		return true
	default:
		return false
	}
}

// GapSource names the analyzer perspective a gap came from.
type GapSource string

const (
	SourcePMScope          GapSource = "pm_scope"
	SourcePMRequirement    GapSource = "pm_requirement"
	SourcePMDependency     GapSource = "pm_dependency"
	SourcePMPriority       GapSource = "pm_priority"
	SourceUXAccessibility  GapSource = "ux_accessibility"
	SourceUXUsability      GapSource = "ux_usability"
	SourceUXDesignPattern  GapSource = "ux_design_pattern"
	SourceUXUserFlow       GapSource = "ux_user_flow"
	SourceQATestability    GapSource = "qa_testability"
	SourceQAEdgeCase       GapSource = "qa_edge_case"
	SourceQAACClarity      GapSource = "qa_ac_clarity"
	SourceQACoverage       GapSource = "qa_coverage"
	SourceAttackEdgeCase   GapSource = "attack_edge_case"
	SourceAttackAssumption GapSource = "attack_assumption"
)

// IsValid returns true if the source is known.
func (s GapSource) IsValid() bool {
	switch s {
	case SourcePMScope, SourcePMRequirement, SourcePMDependency, SourcePMPriority,
		SourceUXAccessibility, SourceUXUsability, SourceUXDesignPattern, SourceUXUserFlow,
		SourceQATestability, SourceQAEdgeCase, SourceQAACClarity, SourceQACoverage,
		SourceAttackEdgeCase, SourceAttackAssumption:
		return true
	default:
		return false
	}
}

// IsQA reports whether the gap came from the QA perspective.
func (s GapSource) IsQA() bool {
	return strings.HasPrefix(string(s), "qa_")
}

// RankedGap is a deduplicated, scored gap from gap hygiene.
type RankedGap struct {
	ID          string      `json:"id" yaml:"id"`
	OriginalID  string      `json:"original_id" yaml:"original_id"`
	Source      GapSource   `json:"source" yaml:"source"`
	Description string      `json:"description" yaml:"description"`
	Score       int         `json:"score" yaml:"score"`
	Severity    int         `json:"severity" yaml:"severity"`
	Likelihood  int         `json:"likelihood" yaml:"likelihood"`
	Category    GapCategory `json:"category" yaml:"category"`
	Suggestion  string      `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	RelatedACs  []string    `json:"related_acs" yaml:"related_acs"`
	MergedFrom  []string    `json:"merged_from" yaml:"merged_from"`
	Resolved    bool        `json:"resolved" yaml:"resolved"`
	// Acknowledged gaps are known to stakeholders but not resolved.
	Acknowledged bool `json:"acknowledged" yaml:"acknowledged"`
}

// RelatesTo reports whether the gap names acID among its related criteria.
func (g RankedGap) RelatesTo(acID string) bool {
	for _, id := range g.RelatedACs {
		if id == acID {
			return true
		}
	}
	return false
}

// HygieneResult is the output of gap hygiene.
type HygieneResult struct {
	StoryID          string      `json:"story_id" yaml:"story_id"`
	AnalyzedAt       time.Time   `json:"analyzed_at" yaml:"analyzed_at"`
	RankedGaps       []RankedGap `json:"ranked_gaps" yaml:"ranked_gaps"`
	TotalGaps        int         `json:"total_gaps" yaml:"total_gaps"`
	MVPBlockingCount int         `json:"mvp_blocking_count" yaml:"mvp_blocking_count"`
	HighestScore     int         `json:"highest_score" yaml:"highest_score"`
	AverageScore     float64     `json:"average_score" yaml:"average_score"`
	Summary          string      `json:"summary" yaml:"summary"`
	ActionItems      []string    `json:"action_items" yaml:"action_items"`
}
