package fairness

import (
	"encoding/json"
	"strconv"
)

// Score is a metric value that may be undefined.
// The zero Score is undefined.
type Score struct {
	value   float64
	defined bool
}

// Defined returns a defined score.
func Defined(v float64) Score { return Score{value: v, defined: true} }

// Undefined returns the "not applicable" score.
func Undefined() Score { return Score{} }

// ratio returns num/den, undefined when den is zero.
func ratio(num, den int) Score {
	if den == 0 {
		return Undefined()
	}
	return Defined(float64(num) / float64(den))
}

// IsDefined reports whether the score carries a value.
func (s Score) IsDefined() bool { return s.defined }

// Value returns the value and whether it is defined.
func (s Score) Value() (float64, bool) { return s.value, s.defined }

// String formats the score with four decimals, or "n/a".
func (s Score) String() string {
	if !s.defined {
		return "n/a"
	}
	return strconv.FormatFloat(s.value, 'f', 4, 64)
}

// MarshalJSON encodes an undefined score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON decodes a number or null.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*s = Undefined()
		return nil
	}
	*s = Defined(*v)
	return nil
}

// MarshalYAML encodes an undefined score as null.
func (s Score) MarshalYAML() (any, error) {
	if !s.defined {
		return nil, nil
	}
	return s.value, nil
}
