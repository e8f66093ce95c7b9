package synthesis

import (
	"fmt"
	"sort"

	"github.com/c360studio/storysynth/story"
)

var gapSourceTestCategory = map[story.GapSource]TestCategory{
	story.SourceQATestability: TestUnit,
	story.SourceQAEdgeCase:    TestEdgeCase,
	story.SourceQACoverage:    TestIntegration,
	story.SourceQAACClarity:   TestE2E,
}

var edgeCaseTestCategory = map[story.EdgeCaseCategory]TestCategory{
	story.EdgeSecurity:     TestSecurity,
	story.EdgePerformance:  TestPerformance,
	story.EdgeBoundary:     TestUnit,
	story.EdgeData:         TestUnit,
	story.EdgeIntegration:  TestIntegration,
	story.EdgeEnvironment:  TestIntegration,
	story.EdgeUserBehavior: TestE2E,
}

// TestCategoryForGap maps a gap source to a test category. Unmapped sources
// are integration tests.
func TestCategoryForGap(source story.GapSource) TestCategory {
	if c, ok := gapSourceTestCategory[source]; ok {
		return c
	}
	return TestIntegration
}

// TestCategoryForEdgeCase maps an edge-case category to a test category.
// Unmapped categories are edge-case tests.
func TestCategoryForEdgeCase(category story.EdgeCaseCategory) TestCategory {
	if c, ok := edgeCaseTestCategory[category]; ok {
		return c
	}
	return TestEdgeCase
}

func gapPriority(category story.GapCategory) int {
	switch category {
	case story.GapMVPBlocking:
		return PriorityHigh
	case story.GapMVPImportant:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func riskPriority(risk int) int {
	switch {
	case risk >= highRiskScore:
		return PriorityHigh
	case risk >= 9:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// GenerateTestHints builds hints from unresolved QA gaps and risky edge cases,
// each source limited to half the cap rounded up. The combined list is
// stable-sorted by priority and then truncated, so the lowest priority hints
// are dropped first and equal priorities keep generation order.
func GenerateTestHints(gaps *story.HygieneResult, attacks *story.AttackAnalysis, cfg Config) []TestHint {
	hints := []TestHint{}
	perSource := (cfg.MaxTestHints + 1) / 2
	threshold := cfg.MinGapScoreForTestHints

	if gaps != nil {
		taken := 0
		for _, gap := range gaps.RankedGaps {
			if taken == perSource {
				break
			}
			if !gap.Source.IsQA() || gap.Score < threshold || gap.Resolved {
				continue
			}
			hint := TestHint{
				Description:  gap.Description,
				Category:     TestCategoryForGap(gap.Source),
				Priority:     gapPriority(gap.Category),
				RelatedGapID: gap.ID,
				Approach:     gap.Suggestion,
			}
			if len(gap.RelatedACs) > 0 {
				hint.RelatedACID = gap.RelatedACs[0]
			}
			hints = append(hints, hint)
			taken++
		}
	}

	if attacks != nil {
		taken := 0
		for _, ec := range attacks.EdgeCases {
			if taken == perSource {
				break
			}
			if ec.RiskScore < threshold {
				continue
			}
			hints = append(hints, TestHint{
				Description:  "Edge case: " + ec.Description,
				Category:     TestCategoryForEdgeCase(ec.Category),
				Priority:     riskPriority(ec.RiskScore),
				RelatedGapID: ec.ID,
				Approach:     ec.Mitigation,
			})
			taken++
		}
	}

	// IDs follow generation order so they stay stable across truncation.
	for i := range hints {
		hints[i].ID = fmt.Sprintf("TH-%d", i+1)
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].Priority < hints[j].Priority
	})
	if len(hints) > cfg.MaxTestHints {
		hints = hints[:cfg.MaxTestHints]
	}
	return hints
}
