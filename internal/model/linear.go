package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Linear is a logistic-regression classifier with fixed coefficients.
// It predicts 1 when sigmoid(intercept + w·x) >= threshold, else 0.
type Linear struct {
	name      string
	features  []string
	weights   []float64
	intercept float64
	threshold float64
	logger    *slog.Logger
}

// NewLinear builds a Linear model. Every feature needs a weight; weights for
// undeclared features are rejected. When Features is empty, the weighted
// features are used in sorted order.
func NewLinear(cfg Config, logger *slog.Logger) (*Linear, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	features := slices.Clone(cfg.Features)
	if len(features) == 0 {
		for f := range cfg.Weights {
			features = append(features, f)
		}
		slices.Sort(features)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("linear model needs at least one feature")
	}

	weights := make([]float64, len(features))
	for i, f := range features {
		w, ok := cfg.Weights[f]
		if !ok {
			return nil, fmt.Errorf("linear model: no weight for feature %q", f)
		}
		weights[i] = w
	}
	for f := range cfg.Weights {
		if !slices.Contains(features, f) {
			return nil, fmt.Errorf("linear model: weight for undeclared feature %q", f)
		}
	}

	threshold := 0.5
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("linear model: threshold %v outside [0,1]", threshold)
	}

	name := cfg.Name
	if name == "" {
		name = "linear"
	}

	return &Linear{
		name:      name,
		features:  features,
		weights:   weights,
		intercept: cfg.Intercept,
		threshold: threshold,
		logger:    logger,
	}, nil
}

// Name returns the model name.
func (m *Linear) Name() string { return m.name }

// Features returns the input columns.
func (m *Linear) Features() []string { return slices.Clone(m.features) }

// Probability returns the positive-class probability for one feature vector.
func (m *Linear) Probability(x []float64) float64 {
	z := m.intercept
	for i, w := range m.weights {
		z += w * x[i]
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict returns 1 or 0 for every row.
func (m *Linear) Predict(ctx context.Context, f *dataset.Frame) ([]dataset.Value, error) {
	cols := make([][]dataset.Value, len(m.features))
	for i, name := range m.features {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	out := make([]dataset.Value, f.RowCount())
	x := make([]float64, len(m.features))
	positives := 0
	for row := range out {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i, col := range cols {
			v, err := numeric(col[row])
			if err != nil {
				return nil, fmt.Errorf("row %d feature %q: %w", row, m.features[i], err)
			}
			x[i] = v
		}
		if m.Probability(x) >= m.threshold {
			out[row] = dataset.Int(1)
			positives++
		} else {
			out[row] = dataset.Int(0)
		}
	}

	m.logger.Debug("linear model predicted", "model", m.name, "rows", len(out), "positives", positives)
	return out, nil
}

func numeric(v dataset.Value) (float64, error) {
	switch v.Kind() {
	case dataset.KindNumber:
		n, _ := v.AsNumber()
		return n, nil
	case dataset.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("non-numeric value %v (%s)", v, v.Kind())
	}
}
