package story

import "time"

// ReadinessFactors are the inputs the readiness score was computed from.
type ReadinessFactors struct {
	MVPBlockingCount     int  `json:"mvp_blocking_count" yaml:"mvp_blocking_count"`
	MVPImportantCount    int  `json:"mvp_important_count" yaml:"mvp_important_count"`
	KnownUnknownsCount   int  `json:"known_unknowns_count" yaml:"known_unknowns_count"`
	HasStrongContext     bool `json:"has_strong_context" yaml:"has_strong_context"`
	HasBaselineAlignment bool `json:"has_baseline_alignment" yaml:"has_baseline_alignment"`
	TotalGapsAnalyzed    int  `json:"total_gaps_analyzed" yaml:"total_gaps_analyzed"`
}

// ReadinessResult is the output of readiness scoring.
type ReadinessResult struct {
	StoryID    string           `json:"story_id" yaml:"story_id"`
	AnalyzedAt time.Time        `json:"analyzed_at" yaml:"analyzed_at"`
	Score      int              `json:"score" yaml:"score"`
	Ready      bool             `json:"ready" yaml:"ready"`
	Threshold  int              `json:"threshold" yaml:"threshold"`
	Factors    ReadinessFactors `json:"factors" yaml:"factors"`
	Summary    string           `json:"summary" yaml:"summary"`
	Confidence Confidence       `json:"confidence" yaml:"confidence"`
}
