package synthesis

// Warnings emitted for each absent upstream input.
const (
	WarnNoSeed      = "No story seed available - synthesis will be incomplete"
	WarnNoGaps      = "No gap hygiene analysis available - AC enhancement limited"
	WarnNoAttacks   = "No attack analysis available - non-goals may be incomplete"
	WarnNoReadiness = "No readiness analysis available - commitment baseline limited"
)

// Consolidated records which inputs are present. The baseline is not
// tracked; it only feeds the commitment snapshot.
type Consolidated struct {
	HasSeed      bool
	HasGaps      bool
	HasAttacks   bool
	HasReadiness bool
	HasAllInputs bool
	Warnings     []string
}

// ConsolidateInputs classifies the inputs and emits one warning per missing
// analysis, in seed, gaps, attacks, readiness order.
func ConsolidateInputs(in Inputs) Consolidated {
	c := Consolidated{
		HasSeed:      in.Seed != nil,
		HasGaps:      in.Gaps != nil,
		HasAttacks:   in.Attacks != nil,
		HasReadiness: in.Readiness != nil,
		Warnings:     []string{},
	}
	c.HasAllInputs = c.HasSeed && c.HasGaps && c.HasAttacks && c.HasReadiness

	if !c.HasSeed {
		c.Warnings = append(c.Warnings, WarnNoSeed)
	}
	if !c.HasGaps {
		c.Warnings = append(c.Warnings, WarnNoGaps)
	}
	if !c.HasAttacks {
		c.Warnings = append(c.Warnings, WarnNoAttacks)
	}
	if !c.HasReadiness {
		c.Warnings = append(c.Warnings, WarnNoReadiness)
	}
	return c
}
