package synthesis

import (
	"fmt"
	"strings"

	"github.com/c360studio/storysynth/story"
)

// highRiskScore is the risk score at which an edge case counts as high risk.
const highRiskScore = 15

// GenerateNonGoals merges non-goals from three sources, each under its own
// quota, then truncates the concatenation to cfg.MaxNonGoals. Earlier sources
// win on truncation:
//
//  1. challenged assumptions judged invalid or partially valid (cap/2)
//  2. mitigated high-risk edge cases not already covered (cap/4)
//  3. deferred and future gaps (cap/4)
//
// The seed is accepted for symmetry with the other generators and is unused.
func GenerateNonGoals(_ *story.StoryStructure, attacks *story.AttackAnalysis, gaps *story.HygieneResult, cfg Config) []NonGoal {
	nonGoals := []NonGoal{}
	nextID := func() string { return fmt.Sprintf("NG-%d", len(nonGoals)+1) }

	if attacks != nil {
		quota := cfg.MaxNonGoals / 2
		for _, cr := range attacks.ChallengeResults {
			if quota == 0 {
				break
			}
			if cr.Validity != story.ValidityInvalid && cr.Validity != story.ValidityPartiallyValid {
				continue
			}
			reason := cr.Evidence
			if reason == "" {
				reason = "Assumption challenged as " + string(cr.Validity)
			}
			nonGoals = append(nonGoals, NonGoal{
				ID:          nextID(),
				Description: "Scope excludes: " + cr.Assumption.Description,
				Reason:      reason,
				Source:      NonGoalFromAttack,
				RelatedID:   cr.Assumption.ID,
			})
			quota--
		}

		quota = cfg.MaxNonGoals / 4
		for _, ec := range attacks.EdgeCases {
			if quota == 0 {
				break
			}
			if ec.RiskScore < highRiskScore || ec.Mitigation == "" || coveredByNonGoal(nonGoals, ec.Description) {
				continue
			}
			nonGoals = append(nonGoals, NonGoal{
				ID:          nextID(),
				Description: fmt.Sprintf("Out of scope: Complete mitigation for \"%s\"", ec.Description),
				Reason:      fmt.Sprintf("High-risk edge case (score: %d) - will be addressed in follow-up story", ec.RiskScore),
				Source:      NonGoalFromAttack,
				RelatedID:   ec.ID,
			})
			quota--
		}
	}

	if gaps != nil {
		quota := cfg.MaxNonGoals / 4
		for _, gap := range gaps.RankedGaps {
			if quota == 0 {
				break
			}
			if gap.Category != story.GapDeferred && gap.Category != story.GapFuture {
				continue
			}
			nonGoals = append(nonGoals, NonGoal{
				ID:          nextID(),
				Description: "Deferred: " + gap.Description,
				Reason:      fmt.Sprintf("Low priority gap (score: %d) - deferred to future iteration", gap.Score),
				Source:      NonGoalFromGaps,
				RelatedID:   gap.ID,
			})
			quota--
		}
	}

	if len(nonGoals) > cfg.MaxNonGoals {
		nonGoals = nonGoals[:cfg.MaxNonGoals]
	}
	return nonGoals
}

func coveredByNonGoal(nonGoals []NonGoal, text string) bool {
	for _, ng := range nonGoals {
		if strings.Contains(ng.Description, text) {
			return true
		}
	}
	return false
}
