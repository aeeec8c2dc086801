package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Tier
// =============================================================================

// Tier is the severity bucket of a fairness difference.
type Tier int

// Tier levels, least to most severe.
const (
	// TierNotApplicable marks a difference that could not be computed.
	TierNotApplicable Tier = iota
	// TierLow indicates a difference below the medium threshold.
	TierLow
	// TierMedium indicates a difference that should be reviewed.
	TierMedium
	// TierHigh indicates a difference that should be acted on.
	TierHigh
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierNotApplicable:
		return "not_applicable"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Color returns the traffic-light colour used by report renderers.
func (t Tier) Color() string {
	switch t {
	case TierLow:
		return "green"
	case TierMedium:
		return "amber"
	case TierHigh:
		return "red"
	default:
		return "grey"
	}
}

// ParseTier converts a string to a Tier value.
// Colour names are accepted as aliases. Returns TierNotApplicable and false if invalid.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "green":
		return TierLow, true
	case "medium", "amber":
		return TierMedium, true
	case "high", "red":
		return TierHigh, true
	case "not_applicable", "n/a", "grey":
		return TierNotApplicable, true
	default:
		return TierNotApplicable, false
	}
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, ok := ParseTier(string(text))
	if !ok {
		return &UnknownTierError{Value: string(text)}
	}
	*t = parsed
	return nil
}

// UnknownTierError is returned when a tier name cannot be parsed.
type UnknownTierError struct {
	Value string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown tier %q (expected low, medium, high or not_applicable)", e.Value)
}
