package story

import "time"

// Confidence is the analyzer's confidence in an assumption.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// Assumption is an implicit belief the story relies on.
type Assumption struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Source      string     `json:"source" yaml:"source"`
	Confidence  Confidence `json:"confidence" yaml:"confidence"`
	SourceRef   string     `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
}

// Validity is the outcome of challenging an assumption.
type Validity string

const (
	// ValidityValid means the assumption holds under challenge.
	ValidityValid Validity = "valid"
	// ValidityPartiallyValid means the assumption holds in some cases.
	ValidityPartiallyValid Validity = "partially_valid"
	// ValidityInvalid means the assumption does not hold.
	ValidityInvalid Validity = "invalid"
	// ValidityUncertain means validity could not be determined.
	ValidityUncertain Validity = "uncertain"
)

// IsValid returns true if the validity is known.
func (v Validity) IsValid() bool {
	switch v {
	case ValidityValid, ValidityPartiallyValid, ValidityInvalid, ValidityUncertain:
		return true
	default:
		return false
	}
}

// ChallengeResult records one challenge against an assumption.
type ChallengeResult struct {
	Assumption  Assumption `json:"assumption" yaml:"assumption"`
	Challenge   string     `json:"challenge" yaml:"challenge"`
	Validity    Validity   `json:"validity" yaml:"validity"`
	Evidence    string     `json:"evidence" yaml:"evidence"`
	Iteration   int        `json:"iteration" yaml:"iteration"`
	Remediation string     `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// EdgeCaseCategory classifies an attack edge case.
type EdgeCaseCategory string

const (
	EdgeBoundary     EdgeCaseCategory = "boundary"
	EdgeConcurrency  EdgeCaseCategory = "concurrency"
	EdgeFailure      EdgeCaseCategory = "failure"
	EdgeSecurity     EdgeCaseCategory = "security"
	EdgePerformance  EdgeCaseCategory = "performance"
	EdgeIntegration  EdgeCaseCategory = "integration"
	EdgeData         EdgeCaseCategory = "data"
	EdgeUserBehavior EdgeCaseCategory = "user_behavior"
	EdgeEnvironment  EdgeCaseCategory = "environment"
	EdgeTiming       EdgeCaseCategory = "timing"
	EdgeADRViolation EdgeCaseCategory = "adr_violation"
)

// IsValid returns true if the category is known.
func (c EdgeCaseCategory) IsValid() bool {
	switch c {
	case EdgeBoundary, EdgeConcurrency, EdgeFailure, EdgeSecurity, EdgePerformance,
		EdgeIntegration, EdgeData, EdgeUserBehavior, EdgeEnvironment, EdgeTiming, EdgeADRViolation:
		return true
	default:
		return false
	}
}

// EdgeCase is a scored scenario the story may not handle.
type EdgeCase struct {
	ID                  string           `json:"id" yaml:"id"`
	Description         string           `json:"description" yaml:"description"`
	Category            EdgeCaseCategory `json:"category" yaml:"category"`
	Likelihood          string           `json:"likelihood" yaml:"likelihood"`
	Impact              string           `json:"impact" yaml:"impact"`
	RiskScore           int              `json:"risk_score" yaml:"risk_score"`
	RelatedAssumptionID string           `json:"related_assumption_id,omitempty" yaml:"related_assumption_id,omitempty"`
	Mitigation          string           `json:"mitigation,omitempty" yaml:"mitigation,omitempty"`
}

// AttackSummary aggregates an attack analysis.
type AttackSummary struct {
	TotalAssumptions  int    `json:"total_assumptions" yaml:"total_assumptions"`
	TotalChallenges   int    `json:"total_challenges" yaml:"total_challenges"`
	WeakAssumptions   int    `json:"weak_assumptions" yaml:"weak_assumptions"`
	TotalEdgeCases    int    `json:"total_edge_cases" yaml:"total_edge_cases"`
	HighRiskEdgeCases int    `json:"high_risk_edge_cases" yaml:"high_risk_edge_cases"`
	AttackReadiness   string `json:"attack_readiness" yaml:"attack_readiness"`
	Narrative         string `json:"narrative" yaml:"narrative"`
}

// AttackAnalysis is the output of the assumption attack analyzer.
type AttackAnalysis struct {
	StoryID            string            `json:"story_id" yaml:"story_id"`
	AnalyzedAt         time.Time         `json:"analyzed_at" yaml:"analyzed_at"`
	Assumptions        []Assumption      `json:"assumptions" yaml:"assumptions"`
	ChallengeResults   []ChallengeResult `json:"challenge_results" yaml:"challenge_results"`
	EdgeCases          []EdgeCase        `json:"edge_cases" yaml:"edge_cases"`
	Summary            AttackSummary     `json:"summary" yaml:"summary"`
	KeyVulnerabilities []string          `json:"key_vulnerabilities" yaml:"key_vulnerabilities"`
	Recommendations    []string          `json:"recommendations" yaml:"recommendations"`
}
