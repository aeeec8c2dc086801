package audit

import (
	"errors"
	"fmt"
)

// ErrPrediction is matched by every PredictionError via errors.Is.
var ErrPrediction = errors.New("prediction failed")

// PredictionError is returned when a model cannot produce usable predictions
// for the supplied feature subset.
type PredictionError struct {
	Model string
	Err   error
}

func (e *PredictionError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("prediction failed: %v", e.Err)
	}
	return fmt.Sprintf("model %s: prediction failed: %v", e.Model, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PredictionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPrediction.
func (e *PredictionError) Is(target error) bool {
	return target == ErrPrediction
}
