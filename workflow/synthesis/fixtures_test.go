package synthesis

import (
	"io"
	"log/slog"
	"time"

	"github.com/c360studio/storysynth/story"
)

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSynthesizer() *Synthesizer {
	return NewSynthesizer(
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func testSeed() *story.StoryStructure {
	return &story.StoryStructure{
		StoryID:     "flow-030",
		Title:       "Add synthesize node",
		Description: "Create a node that produces final story artifacts",
		Domain:      "orchestrator",
		AcceptanceCriteria: []story.AcceptanceCriterion{
			{ID: "AC-1", Description: "The system must synthesize story artifacts"},
			{ID: "AC-2", Description: "The system must generate non-goals"},
			{ID: "AC-3", Description: "The system must document known unknowns", FromBaseline: true, BaselineRef: "baseline-constraint"},
		},
		Constraints:         []string{"Must integrate with readiness node"},
		AffectedFiles:       []string{"src/nodes/story/synthesize.ts"},
		Dependencies:        []string{"gap-hygiene", "attack", "readiness-score"},
		EstimatedComplexity: story.ComplexityMedium,
		Tags:                []string{"langgraph", "node"},
	}
}

func testGap(mod func(*story.RankedGap)) story.RankedGap {
	g := story.RankedGap{
		ID:          "RG-001",
		OriginalID:  "SG-1",
		Source:      story.SourcePMScope,
		Description: "Test gap",
		Score:       12,
		Severity:    3,
		Likelihood:  4,
		Category:    story.GapMVPImportant,
		RelatedACs:  []string{},
		MergedFrom:  []string{},
	}
	if mod != nil {
		mod(&g)
	}
	return g
}

func testHygiene(gaps ...story.RankedGap) *story.HygieneResult {
	return &story.HygieneResult{
		StoryID:    "flow-030",
		AnalyzedAt: fixedNow,
		RankedGaps: gaps,
		TotalGaps:  len(gaps),
		Summary:    "Test hygiene",
	}
}

func testChallenge(description string, validity story.Validity) story.ChallengeResult {
	return story.ChallengeResult{
		Assumption: story.Assumption{
			ID:          "ASM-" + description,
			Description: description,
			Source:      "story_description",
			Confidence:  story.ConfidenceMedium,
		},
		Challenge: "What if it does not hold?",
		Validity:  validity,
		Evidence:  "Evidence for " + description,
		Iteration: 1,
	}
}

func testEdge(id string, risk int, category story.EdgeCaseCategory) story.EdgeCase {
	return story.EdgeCase{
		ID:          id,
		Description: "Edge " + id,
		Category:    category,
		Likelihood:  "possible",
		Impact:      "high",
		RiskScore:   risk,
		Mitigation:  "Mitigate " + id,
	}
}

func testAttacks(challenges []story.ChallengeResult, edges ...story.EdgeCase) *story.AttackAnalysis {
	return &story.AttackAnalysis{
		StoryID:          "flow-030",
		AnalyzedAt:       fixedNow,
		ChallengeResults: challenges,
		EdgeCases:        edges,
	}
}

func testReadiness(score int, ready bool) *story.ReadinessResult {
	return &story.ReadinessResult{
		StoryID:    "flow-030",
		AnalyzedAt: fixedNow,
		Score:      score,
		Ready:      ready,
		Threshold:  85,
		Factors: story.ReadinessFactors{
			MVPImportantCount: 1,
			HasStrongContext:  true,
			TotalGapsAnalyzed: 4,
		},
		Summary:    "Test readiness",
		Confidence: story.ConfidenceHigh,
	}
}

func testBaseline() *story.BaselineReality {
	return &story.BaselineReality{
		Date:           "2026-01-01",
		WhatExists:     []string{"orchestrator infrastructure"},
		WhatInProgress: []string{"gap hygiene node"},
		NoRework:       []string{"state management", "node factory"},
	}
}
