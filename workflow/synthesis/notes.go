package synthesis

import (
	"fmt"
	"strings"

	"github.com/c360studio/storysynth/story"
)

// synthesisNotes summarises the artifact in a few sentences.
func synthesisNotes(
	seed *story.StoryStructure,
	acs []FinalAcceptanceCriterion,
	nonGoals []NonGoal,
	hints []TestHint,
	unknowns []KnownUnknown,
	readiness *story.ReadinessResult,
) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Synthesized story \"%s\" with %d acceptance criteria.", seed.Title, len(acs)))

	enhanced := 0
	for _, ac := range acs {
		if ac.EnhancedFromGaps {
			enhanced++
		}
	}
	if enhanced > 0 {
		parts = append(parts, fmt.Sprintf("%d AC(s) enhanced with gap insights.", enhanced))
	}

	if len(nonGoals) > 0 {
		parts = append(parts, fmt.Sprintf("%d non-goal(s) identified to clarify scope.", len(nonGoals)))
	}

	if len(hints) > 0 {
		high := 0
		for _, h := range hints {
			if h.Priority == PriorityHigh {
				high++
			}
		}
		if high > 0 {
			parts = append(parts, fmt.Sprintf("%d test hint(s) generated (%d high priority).", len(hints), high))
		} else {
			parts = append(parts, fmt.Sprintf("%d test hint(s) generated.", len(hints)))
		}
	}

	if len(unknowns) > 0 {
		blocking := 0
		for _, ku := range unknowns {
			if ku.Impact == ImpactBlocking {
				blocking++
			}
		}
		if blocking > 0 {
			parts = append(parts, fmt.Sprintf("%d known unknown(s) including %d blocking.", len(unknowns), blocking))
		} else {
			parts = append(parts, fmt.Sprintf("%d known unknown(s).", len(unknowns)))
		}
	}

	if readiness != nil {
		verdict := "NOT READY"
		if readiness.Ready {
			verdict = "READY"
		}
		parts = append(parts, fmt.Sprintf("Readiness: %d/100 (%s).", readiness.Score, verdict))
	}

	return strings.Join(parts, " ")
}
