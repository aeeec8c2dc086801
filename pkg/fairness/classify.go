package fairness

import (
	"math"

	"github.com/leapstack-labs/aegis/pkg/core"
)

// Severity thresholds on the absolute difference.
const (
	MediumThreshold = 0.10
	HighThreshold   = 0.20
)

// Classify maps a difference to a severity tier.
// Undefined differences are never classified.
func Classify(diff Score) core.Tier {
	v, ok := diff.Value()
	if !ok {
		return core.TierNotApplicable
	}
	switch abs := math.Abs(v); {
	case abs < MediumThreshold:
		return core.TierLow
	case abs < HighThreshold:
		return core.TierMedium
	default:
		return core.TierHigh
	}
}
