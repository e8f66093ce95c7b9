package synthesis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/storysynth/story"
)

func TestFindUncertaintyMarker(t *testing.T) {
	tests := []struct {
		text      string
		wantLabel string
		wantOK    bool
	}{
		{"Rate limit TBD", "TBD", true},
		{"rate limit tbd.", "TBD", true},
		{"Provider To Be Determined", "to be determined", true},
		{"Behaviour for Unknown users", "unknown", true},
		{"Max size ??", "??", true},
		{"Retention period tbc", "TBC", true},
		{"Both TBD and unknown", "TBD", true},
		{"Document known unknowns", "", false},
		{"Single question?", "", false},
		{"TBDs are banned", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			label, ok := findUncertaintyMarker(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestDocumentKnownUnknownsStoryContent(t *testing.T) {
	seed := testSeed()
	seed.Description = "Export format TBD, storage unknown"
	long := "The export endpoint returns results within ?? milliseconds for large stories"
	seed.AcceptanceCriteria = []story.AcceptanceCriterion{
		{ID: "AC-1", Description: "Rate limit is tbc"},
		{ID: "AC-2", Description: "Clear criterion"},
		{ID: "AC-3", Description: long},
	}

	got := DocumentKnownUnknowns(nil, nil, nil, seed, DefaultConfig())

	require.Len(t, got, 3, "description yields at most one entry")
	assert.Equal(t, KnownUnknown{
		ID:          "KU-1",
		Description: `Story description contains uncertainty marker: "TBD"`,
		Source:      UnknownFromStory,
		Impact:      ImpactMedium,
		Resolution:  "Clarify with stakeholder before implementation",
	}, got[0])
	assert.Equal(t, `AC AC-1 contains uncertainty: "Rate limit is tbc"`, got[1].Description)
	assert.Equal(t, ImpactHigh, got[1].Impact)
	assert.Equal(t, "Define specific acceptance criteria before implementation", got[1].Resolution)
	assert.Equal(t, `AC AC-3 contains uncertainty: "`+long[:50]+`..."`, got[2].Description)
	assert.Equal(t, "KU-3", got[2].ID)
}

func TestDocumentKnownUnknownsUncertainAssumptions(t *testing.T) {
	withRemediation := testChallenge("Payments settle instantly", story.ValidityUncertain)
	withRemediation.Remediation = "Confirm with finance"
	challenges := []story.ChallengeResult{
		testChallenge("Ignored valid", story.ValidityValid),
		withRemediation,
		testChallenge("Second", story.ValidityUncertain),
		testChallenge("Third", story.ValidityUncertain),
		testChallenge("Fourth", story.ValidityUncertain),
	}

	got := DocumentKnownUnknowns(nil, testAttacks(challenges), nil, testSeed(), DefaultConfig())

	require.Len(t, got, 3)
	assert.Equal(t, "Uncertain assumption: Payments settle instantly", got[0].Description)
	assert.Equal(t, "Confirm with finance", got[0].Resolution)
	assert.Equal(t, UnknownFromAttack, got[0].Source)
	assert.Equal(t, "Validate assumption with domain expert", got[1].Resolution)
	assert.Equal(t, "Uncertain assumption: Third", got[2].Description)
}

func TestDocumentKnownUnknownsBlockingGaps(t *testing.T) {
	gaps := testHygiene(
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-ACK"
			g.Category = story.GapMVPBlocking
			g.Acknowledged = true
		}),
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-RES"
			g.Category = story.GapMVPBlocking
			g.Resolved = true
		}),
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-DUP"
			g.Category = story.GapMVPBlocking
			g.Description = "Cache is warm"
		}),
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-1"
			g.Category = story.GapMVPBlocking
			g.Description = "No auth model"
			g.Suggestion = "Decide on OAuth scopes"
		}),
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-2"
			g.Category = story.GapMVPBlocking
			g.Description = "No audit trail"
		}),
		testGap(func(g *story.RankedGap) {
			g.ID = "RG-3"
			g.Category = story.GapMVPBlocking
			g.Description = "Over the limit"
		}),
	)
	attacks := testAttacks([]story.ChallengeResult{testChallenge("Cache is warm", story.ValidityUncertain)})

	got := DocumentKnownUnknowns(nil, attacks, gaps, testSeed(), DefaultConfig())

	require.Len(t, got, 3)
	assert.Equal(t, "Uncertain assumption: Cache is warm", got[0].Description)
	assert.Equal(t, KnownUnknown{
		ID:          "KU-2",
		Description: "Unresolved blocking gap: No auth model",
		Source:      UnknownFromGaps,
		Impact:      ImpactBlocking,
		Resolution:  "Decide on OAuth scopes",
	}, got[1])
	assert.Equal(t, "Unresolved blocking gap: No audit trail", got[2].Description, "a covered gap does not consume the quota")
	assert.Equal(t, "Address before implementation", got[2].Resolution)
}

func TestDocumentKnownUnknownsReadinessFallback(t *testing.T) {
	notReady := testReadiness(60, false)
	notReady.Factors.KnownUnknownsCount = 2

	t.Run("used when nothing else was found", func(t *testing.T) {
		got := DocumentKnownUnknowns(notReady, nil, nil, testSeed(), DefaultConfig())
		require.Len(t, got, 1)
		assert.Equal(t, "Readiness analysis identified 2 uncertainty marker(s)", got[0].Description)
		assert.Equal(t, UnknownFromReadiness, got[0].Source)
		assert.Equal(t, "Review story content for TBD/unknown markers", got[0].Resolution)
	})

	t.Run("story markers take precedence", func(t *testing.T) {
		seed := testSeed()
		seed.Description = "Scope TBD"
		got := DocumentKnownUnknowns(notReady, nil, nil, seed, DefaultConfig())
		require.Len(t, got, 1)
		assert.Equal(t, UnknownFromStory, got[0].Source)
	})

	t.Run("not used when ready", func(t *testing.T) {
		ready := testReadiness(90, true)
		ready.Factors.KnownUnknownsCount = 2
		assert.Empty(t, DocumentKnownUnknowns(ready, nil, nil, testSeed(), DefaultConfig()))
	})

	t.Run("not used without a count", func(t *testing.T) {
		assert.Empty(t, DocumentKnownUnknowns(testReadiness(60, false), nil, nil, testSeed(), DefaultConfig()))
	})
}

func TestDocumentKnownUnknownsCap(t *testing.T) {
	seed := testSeed()
	seed.AcceptanceCriteria = nil
	for _, id := range []string{"AC-1", "AC-2", "AC-3"} {
		seed.AcceptanceCriteria = append(seed.AcceptanceCriteria, story.AcceptanceCriterion{ID: id, Description: id + " is TBD"})
	}
	cfg := DefaultConfig()
	cfg.MaxKnownUnknowns = 2

	got := DocumentKnownUnknowns(nil, nil, nil, seed, cfg)

	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[1].Description, "AC AC-2"))
}

func TestDocumentKnownUnknownsNoInputs(t *testing.T) {
	got := DocumentKnownUnknowns(nil, nil, nil, nil, DefaultConfig())

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
