package synthesis

import (
	"fmt"
	"time"

	"github.com/c360studio/storysynth/story"
)

// CreateCommitmentBaseline snapshots the story state at commitment time. It
// returns nil without a readiness result; every other input may be nil.
func CreateCommitmentBaseline(
	readiness *story.ReadinessResult,
	baseline *story.BaselineReality,
	seed *story.StoryStructure,
	gaps *story.HygieneResult,
	knownUnknowns []KnownUnknown,
	now time.Time,
) *CommitmentBaseline {
	if readiness == nil {
		return nil
	}

	blocking := 0
	if gaps != nil {
		for _, gap := range gaps.RankedGaps {
			if gap.Category == story.GapMVPBlocking && !gap.Resolved {
				blocking++
			}
		}
	}

	cb := &CommitmentBaseline{
		CommittedAt:           now.UTC(),
		ReadinessScore:        readiness.Score,
		WasReady:              readiness.Ready,
		BlockingGapsCount:     blocking,
		KnownUnknownsCount:    len(knownUnknowns),
		BaselineConstraints:   []string{},
		ExpectedAffectedFiles: []string{},
		Dependencies:          []string{},
	}
	if baseline != nil {
		cb.BaselineConstraints = cloneStrings(baseline.NoRework)
	}
	if seed != nil {
		cb.ExpectedAffectedFiles = cloneStrings(seed.AffectedFiles)
		cb.Dependencies = cloneStrings(seed.Dependencies)
	}

	if readiness.Ready {
		cb.CommitmentNotes = "Story committed at readiness threshold"
	} else {
		cb.CommitmentNotes = fmt.Sprintf("Story committed below threshold (score: %d/%d)", readiness.Score, readiness.Threshold)
	}
	return cb
}
