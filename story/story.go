// Package story defines the upstream analysis records consumed by synthesis:
// the story seed, gap hygiene, attack analysis, readiness and baseline
// reality. Each record is produced by an external analyzer and read-only here.
package story

// Complexity is the estimated size of a story.
type Complexity string

const (
	ComplexitySmall  Complexity = "small"
	ComplexityMedium Complexity = "medium"
	ComplexityLarge  Complexity = "large"
)

// IsValid returns true if the complexity is one of the known sizes.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySmall, ComplexityMedium, ComplexityLarge:
		return true
	default:
		return false
	}
}

// AcceptanceCriterion is one acceptance criterion of the seed.
type AcceptanceCriterion struct {
	ID           string `json:"id" yaml:"id"`
	Description  string `json:"description" yaml:"description"`
	FromBaseline bool   `json:"from_baseline" yaml:"from_baseline"`
	BaselineRef  string `json:"baseline_ref,omitempty" yaml:"baseline_ref,omitempty"`
}

// StoryStructure is the seed of a story: the identity, acceptance criteria
// and scope fields that every later analysis works from.
type StoryStructure struct {
	StoryID             string                `json:"story_id" yaml:"story_id"`
	Title               string                `json:"title" yaml:"title"`
	Description         string                `json:"description" yaml:"description"`
	Domain              string                `json:"domain" yaml:"domain"`
	AcceptanceCriteria  []AcceptanceCriterion `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	Constraints         []string              `json:"constraints" yaml:"constraints"`
	AffectedFiles       []string              `json:"affected_files" yaml:"affected_files"`
	Dependencies        []string              `json:"dependencies" yaml:"dependencies"`
	EstimatedComplexity Complexity            `json:"estimated_complexity" yaml:"estimated_complexity"`
	Tags                []string              `json:"tags" yaml:"tags"`
}

// BaselineReality describes the existing system a story lands in.
type BaselineReality struct {
	Date           string   `json:"date,omitempty" yaml:"date,omitempty"`
	FilePath       string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	WhatExists     []string `json:"what_exists" yaml:"what_exists"`
	WhatInProgress []string `json:"what_in_progress" yaml:"what_in_progress"`
	// NoRework lists areas that must not be rebuilt.
	NoRework []string `json:"no_rework" yaml:"no_rework"`
}
