package fairness

import (
	"errors"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// ErrPredictionsRequired is returned when a prediction-based metric is
// evaluated without predicted labels.
var ErrPredictionsRequired = errors.New("metric requires predicted labels")

// MetricName identifies a metric.
type MetricName string

// Built-in metric names.
const (
	MetricRepresentationCount MetricName = "representation_count"
	MetricSelectionRate       MetricName = "selection_rate"
	MetricAccuracy            MetricName = "accuracy"
	MetricPrecision           MetricName = "precision"
	MetricRecall              MetricName = "recall"
	MetricTruePositiveRate    MetricName = "true_positive_rate"
	MetricFalsePositiveRate   MetricName = "false_positive_rate"
)

// Labels carries the true and predicted labels of a whole frame.
// Pred is nil for data-only audits.
type Labels struct {
	True     []dataset.Value
	Pred     []dataset.Value
	Positive dataset.Value
}

// DefaultPositive is the positive class used when Labels.Positive is null.
var DefaultPositive = dataset.Int(1)

func (l Labels) positive() dataset.Value {
	if l.Positive.IsNull() {
		return DefaultPositive
	}
	return l.Positive
}

// MetricFunc computes a metric over the given rows.
type MetricFunc func(l Labels, rows []int) Score

// Metric is a named metric definition.
type Metric struct {
	Name             MetricName
	NeedsPredictions bool
	Fn               MetricFunc
}

// Built-in metrics.
var (
	RepresentationCount = Metric{
		Name: MetricRepresentationCount,
		Fn: func(_ Labels, rows []int) Score {
			return Defined(float64(len(rows)))
		},
	}

	SelectionRate = Metric{
		Name:             MetricSelectionRate,
		NeedsPredictions: true,
		Fn: func(l Labels, rows []int) Score {
			c := confusionOf(l, rows)
			return ratio(c.tp+c.fp, len(rows))
		},
	}

	Accuracy = Metric{
		Name:             MetricAccuracy,
		NeedsPredictions: true,
		Fn: func(l Labels, rows []int) Score {
			correct := 0
			for _, r := range rows {
				if l.Pred[r].Equal(l.True[r]) {
					correct++
				}
			}
			return ratio(correct, len(rows))
		},
	}

	Precision = Metric{
		Name:             MetricPrecision,
		NeedsPredictions: true,
		Fn: func(l Labels, rows []int) Score {
			c := confusionOf(l, rows)
			return ratio(c.tp, c.tp+c.fp)
		},
	}

	Recall = Metric{
		Name:             MetricRecall,
		NeedsPredictions: true,
		Fn:               recall,
	}

	TruePositiveRate = Metric{
		Name:             MetricTruePositiveRate,
		NeedsPredictions: true,
		Fn:               recall,
	}

	FalsePositiveRate = Metric{
		Name:             MetricFalsePositiveRate,
		NeedsPredictions: true,
		Fn: func(l Labels, rows []int) Score {
			c := confusionOf(l, rows)
			return ratio(c.fp, c.fp+c.tn)
		},
	}
)

// PerformanceMetrics is the metric set evaluated by a model audit.
func PerformanceMetrics() []Metric {
	return []Metric{Accuracy, Precision, Recall, SelectionRate, FalsePositiveRate, TruePositiveRate}
}

func recall(l Labels, rows []int) Score {
	c := confusionOf(l, rows)
	return ratio(c.tp, c.tp+c.fn)
}

type confusion struct {
	tp, fp, tn, fn int
}

// confusionOf binarises labels against the positive class.
func confusionOf(l Labels, rows []int) confusion {
	pos := l.positive()
	var c confusion
	for _, r := range rows {
		actual := l.True[r].Equal(pos)
		predicted := l.Pred[r].Equal(pos)
		switch {
		case actual && predicted:
			c.tp++
		case !actual && predicted:
			c.fp++
		case actual && !predicted:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

// Evaluate computes each metric over one subgroup.
// Callers must ensure Labels holds predictions when a metric needs them;
// NewTable performs that check.
func Evaluate(l Labels, g Subgroup, metrics ...Metric) map[MetricName]Score {
	out := make(map[MetricName]Score, len(metrics))
	for _, m := range metrics {
		out[m.Name] = m.Fn(l, g.Rows)
	}
	return out
}
