package synthesis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360studio/storysynth/story"
)

// uncertaintyMarker is a phrase that marks unfinished story content.
type uncertaintyMarker struct {
	label   string
	pattern *regexp.Regexp
}

// Checked in order; the first match wins.
var uncertaintyMarkers = []uncertaintyMarker{
	{"TBD", regexp.MustCompile(`(?i)\btbd\b`)},
	{"to be determined", regexp.MustCompile(`(?i)\bto be determined\b`)},
	{"unknown", regexp.MustCompile(`(?i)\bunknown\b`)},
	{"??", regexp.MustCompile(`\?{2,}`)},
	{"TBC", regexp.MustCompile(`(?i)\btbc\b`)},
}

const (
	maxUncertainAssumptions = 3
	maxBlockingGapUnknowns  = 2
	acExcerptLen            = 50
)

// findUncertaintyMarker returns the label of the first marker found in text.
func findUncertaintyMarker(text string) (string, bool) {
	for _, m := range uncertaintyMarkers {
		if m.pattern.MatchString(text) {
			return m.label, true
		}
	}
	return "", false
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// DocumentKnownUnknowns collects unknowns in precedence order: markers in the
// seed description (one entry at most), markers in each criterion, uncertain
// assumptions, uncovered blocking gaps, and finally a readiness catch-all that
// is only used when nothing else was found. The list is truncated to
// cfg.MaxKnownUnknowns.
func DocumentKnownUnknowns(readiness *story.ReadinessResult, attacks *story.AttackAnalysis, gaps *story.HygieneResult, seed *story.StoryStructure, cfg Config) []KnownUnknown {
	unknowns := []KnownUnknown{}
	add := func(ku KnownUnknown) {
		ku.ID = fmt.Sprintf("KU-%d", len(unknowns)+1)
		unknowns = append(unknowns, ku)
	}

	if seed != nil {
		if label, ok := findUncertaintyMarker(seed.Description); ok {
			add(KnownUnknown{
				Description: fmt.Sprintf("Story description contains uncertainty marker: %q", label),
				Source:      UnknownFromStory,
				Impact:      ImpactMedium,
				Resolution:  "Clarify with stakeholder before implementation",
			})
		}
		for _, ac := range seed.AcceptanceCriteria {
			if _, ok := findUncertaintyMarker(ac.Description); !ok {
				continue
			}
			add(KnownUnknown{
				Description: fmt.Sprintf("AC %s contains uncertainty: \"%s\"", ac.ID, excerpt(ac.Description, acExcerptLen)),
				Source:      UnknownFromStory,
				Impact:      ImpactHigh,
				Resolution:  "Define specific acceptance criteria before implementation",
			})
		}
	}

	if attacks != nil {
		taken := 0
		for _, cr := range attacks.ChallengeResults {
			if taken == maxUncertainAssumptions {
				break
			}
			if cr.Validity != story.ValidityUncertain {
				continue
			}
			resolution := cr.Remediation
			if resolution == "" {
				resolution = "Validate assumption with domain expert"
			}
			add(KnownUnknown{
				Description: "Uncertain assumption: " + cr.Assumption.Description,
				Source:      UnknownFromAttack,
				Impact:      ImpactMedium,
				Resolution:  resolution,
			})
			taken++
		}
	}

	if gaps != nil {
		taken := 0
		for _, gap := range gaps.RankedGaps {
			if taken == maxBlockingGapUnknowns {
				break
			}
			if gap.Category != story.GapMVPBlocking || gap.Resolved || gap.Acknowledged {
				continue
			}
			if coveredByUnknown(unknowns, gap.Description) {
				continue
			}
			resolution := gap.Suggestion
			if resolution == "" {
				resolution = "Address before implementation"
			}
			add(KnownUnknown{
				Description: "Unresolved blocking gap: " + gap.Description,
				Source:      UnknownFromGaps,
				Impact:      ImpactBlocking,
				Resolution:  resolution,
			})
			taken++
		}
	}

	if readiness != nil && !readiness.Ready && readiness.Factors.KnownUnknownsCount > 0 && len(unknowns) == 0 {
		add(KnownUnknown{
			Description: fmt.Sprintf("Readiness analysis identified %d uncertainty marker(s)", readiness.Factors.KnownUnknownsCount),
			Source:      UnknownFromReadiness,
			Impact:      ImpactMedium,
			Resolution:  "Review story content for TBD/unknown markers",
		})
	}

	if len(unknowns) > cfg.MaxKnownUnknowns {
		unknowns = unknowns[:cfg.MaxKnownUnknowns]
	}
	return unknowns
}

func coveredByUnknown(unknowns []KnownUnknown, text string) bool {
	for _, ku := range unknowns {
		if strings.Contains(ku.Description, text) {
			return true
		}
	}
	return false
}
