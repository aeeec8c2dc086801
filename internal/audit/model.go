package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/leapstack-labs/aegis/pkg/fairness"
)

// Fairness measure names and their fixed interpretations.
const (
	DemographicParityDifference = "Demographic Parity Difference"
	EqualizedOddsDifference     = "Equalized Odds Difference"

	demographicParityInterpretation = "Difference in the rate of favorable outcomes (selection rate) between groups. Closer to 0 is fairer."
	equalizedOddsInterpretation     = "Difference in the true positive rate (recall) between groups. Closer to 0 is fairer."
)

// performanceColumns are the metrics shown in a model record's performance table.
var performanceColumns = []fairness.MetricName{
	fairness.MetricAccuracy,
	fairness.MetricPrecision,
	fairness.MetricRecall,
}

var fairnessMeasures = []struct {
	name           string
	metric         fairness.MetricName
	interpretation string
}{
	{DemographicParityDifference, fairness.MetricSelectionRate, demographicParityInterpretation},
	{EqualizedOddsDifference, fairness.MetricTruePositiveRate, equalizedOddsInterpretation},
}

// RunModelAudit predicts labels for frame and reports, for every protected
// attribute, per-subgroup performance and classified fairness differences.
//
// The predictor only ever receives the columns it declares; a declared
// feature that is also a protected attribute is rejected.
func (a *Auditor) RunModelAudit(ctx context.Context, p Predictor, frame *dataset.Frame, trueLabels []dataset.Value, attributes []string) ([]ModelRecord, error) {
	features := p.Features()
	if err := frame.Require(features...); err != nil {
		return nil, err
	}
	if err := frame.Require(attributes...); err != nil {
		return nil, err
	}
	if len(trueLabels) != frame.RowCount() {
		return nil, fmt.Errorf("%d true labels for %d rows", len(trueLabels), frame.RowCount())
	}
	for _, f := range features {
		for _, attr := range attributes {
			if f == attr {
				return nil, &PredictionError{
					Model: predictorName(p),
					Err:   fmt.Errorf("model feature %q is a protected attribute", f),
				}
			}
		}
	}

	pred, err := a.predict(ctx, p, frame, features)
	if err != nil {
		return nil, err
	}

	labels := fairness.Labels{True: trueLabels, Pred: pred, Positive: a.positive}

	a.logger.Debug("starting model audit",
		"model", predictorName(p), "rows", frame.RowCount(), "features", features, "attributes", attributes)

	return forEachAttribute(ctx, a.concurrency, attributes, func(_ context.Context, attr string) (ModelRecord, error) {
		groups, err := fairness.Partition(frame, attr)
		if err != nil {
			return ModelRecord{}, err
		}
		table, err := fairness.NewTable(attr, groups, labels, fairness.PerformanceMetrics()...)
		if err != nil {
			return ModelRecord{}, fmt.Errorf("attribute %s: %w", attr, err)
		}
		perf, err := table.ByGroup(performanceColumns...)
		if err != nil {
			return ModelRecord{}, fmt.Errorf("attribute %s: %w", attr, err)
		}

		rec := ModelRecord{Attribute: attr, Performance: perf}
		for _, m := range fairnessMeasures {
			diff := table.Difference(m.metric)
			tier := fairness.Classify(diff)
			rec.Fairness = append(rec.Fairness, FairnessMeasure{
				Name:           m.name,
				Metric:         m.metric,
				Value:          diff,
				Tier:           tier,
				Status:         tier.Color(),
				Interpretation: m.interpretation,
			})
			a.logger.Debug("fairness measure",
				"attribute", attr, "measure", m.name, "value", diff.String(), "tier", tier.String())
		}
		return rec, nil
	})
}

func (a *Auditor) predict(ctx context.Context, p Predictor, frame *dataset.Frame, features []string) ([]dataset.Value, error) {
	input, err := frame.Select(features...)
	if err != nil {
		return nil, err
	}

	pred, err := p.Predict(ctx, input)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &PredictionError{Model: predictorName(p), Err: err}
	}
	if len(pred) != frame.RowCount() {
		return nil, &PredictionError{
			Model: predictorName(p),
			Err:   fmt.Errorf("got %d predictions for %d rows", len(pred), frame.RowCount()),
		}
	}
	return pred, nil
}

func predictorName(p Predictor) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
