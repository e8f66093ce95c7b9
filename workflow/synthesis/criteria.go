package synthesis

import (
	"fmt"

	"github.com/c360studio/storysynth/story"
)

// maxOrphanACs caps the criteria created for blocking gaps that no seed
// criterion references.
const maxOrphanACs = 3

// GenerateFinalACs carries the seed criteria forward, enhancing them with
// related unresolved gaps, and appends criteria for orphan blocking gaps.
func GenerateFinalACs(seed *story.StoryStructure, gaps *story.HygieneResult, cfg Config) []FinalAcceptanceCriterion {
	final := []FinalAcceptanceCriterion{}
	used := make(map[string]bool)

	if seed != nil {
		for _, ac := range seed.AcceptanceCriteria {
			fac := FinalAcceptanceCriterion{
				ID:            ac.ID,
				Description:   ac.Description,
				FromBaseline:  ac.FromBaseline,
				BaselineRef:   ac.BaselineRef,
				RelatedGapIDs: []string{},
				Priority:      PriorityMedium,
			}
			if cfg.EnhanceACs && gaps != nil {
				enhanceAC(&fac, gaps.RankedGaps)
			}
			used[ac.ID] = true
			final = append(final, fac)
		}
	}

	if gaps == nil {
		return final
	}

	next := len(final) + 1
	added := 0
	for _, gap := range gaps.RankedGaps {
		if added == maxOrphanACs {
			break
		}
		if gap.Category != story.GapMVPBlocking || len(gap.RelatedACs) > 0 || gap.Resolved {
			continue
		}
		id := fmt.Sprintf("AC-%d", next)
		for used[id] {
			next++
			id = fmt.Sprintf("AC-%d", next)
		}
		used[id] = true
		next++
		added++

		final = append(final, FinalAcceptanceCriterion{
			ID:               id,
			Description:      "Address gap: " + gap.Description,
			EnhancedFromGaps: true,
			RelatedGapIDs:    []string{gap.ID},
			Priority:         PriorityHigh,
			TestHint:         gap.Suggestion,
		})
	}
	return final
}

func enhanceAC(fac *FinalAcceptanceCriterion, gaps []story.RankedGap) {
	var qaGap *story.RankedGap
	for i := range gaps {
		gap := &gaps[i]
		if gap.Resolved || !gap.RelatesTo(fac.ID) {
			continue
		}
		fac.EnhancedFromGaps = true
		fac.RelatedGapIDs = append(fac.RelatedGapIDs, gap.ID)
		if gap.Category == story.GapMVPBlocking {
			fac.Priority = PriorityHigh
		}
		if qaGap == nil && gap.Source.IsQA() {
			qaGap = gap
		}
	}
	if qaGap != nil && qaGap.Suggestion != "" {
		fac.TestHint = qaGap.Suggestion
	}
}
