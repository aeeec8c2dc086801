package fairness

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Table holds every requested metric evaluated over every subgroup of one
// protected attribute. It is immutable after construction.
type Table struct {
	attribute string
	metrics   []MetricName
	groups    []Subgroup
	scores    map[MetricName][]Score // indexed like groups
}

// NewTable evaluates metrics over the subgroups of attribute.
func NewTable(attribute string, groups []Subgroup, l Labels, metrics ...Metric) (*Table, error) {
	t := &Table{
		attribute: attribute,
		groups:    slices.Clone(groups),
		scores:    make(map[MetricName][]Score, len(metrics)),
	}

	needsPred := false
	for _, m := range metrics {
		if _, dup := t.scores[m.Name]; dup {
			return nil, fmt.Errorf("metric %q requested twice", m.Name)
		}
		t.scores[m.Name] = make([]Score, len(groups))
		t.metrics = append(t.metrics, m.Name)
		needsPred = needsPred || m.NeedsPredictions
	}

	if needsPred {
		if l.Pred == nil {
			return nil, ErrPredictionsRequired
		}
		if len(l.Pred) != len(l.True) {
			return nil, fmt.Errorf("%d predicted labels for %d true labels", len(l.Pred), len(l.True))
		}
		for _, g := range groups {
			for _, r := range g.Rows {
				if r < 0 || r >= len(l.True) {
					return nil, fmt.Errorf("subgroup %v references row %d outside %d labels", g.Key, r, len(l.True))
				}
			}
		}
	}

	for i, g := range groups {
		for name, score := range Evaluate(l, g, metrics...) {
			t.scores[name][i] = score
		}
	}
	return t, nil
}

// Attribute returns the protected attribute the table was built for.
func (t *Table) Attribute() string { return t.attribute }

// Metrics returns the metric names in request order.
func (t *Table) Metrics() []MetricName { return slices.Clone(t.metrics) }

// Groups returns the subgroup keys in partition order.
func (t *Table) Groups() []dataset.Value {
	keys := make([]dataset.Value, len(t.groups))
	for i, g := range t.groups {
		keys[i] = g.Key
	}
	return keys
}

// Value returns the score of metric for the subgroup keyed by key.
// The boolean is false when the metric or the subgroup is unknown.
func (t *Table) Value(metric MetricName, key dataset.Value) (Score, bool) {
	scores, ok := t.scores[metric]
	if !ok {
		return Undefined(), false
	}
	for i, g := range t.groups {
		if g.Key.Equal(key) {
			return scores[i], true
		}
	}
	return Undefined(), false
}

// Difference returns max minus min of the metric's defined scores.
// The result is undefined when fewer than two subgroups have a defined
// score, or when the metric is not in the table.
func (t *Table) Difference(metric MetricName) Score {
	var (
		lo, hi  float64
		defined int
	)
	for _, s := range t.scores[metric] {
		v, ok := s.Value()
		if !ok {
			continue
		}
		if defined == 0 || v < lo {
			lo = v
		}
		if defined == 0 || v > hi {
			hi = v
		}
		defined++
	}
	if defined < 2 {
		return Undefined()
	}
	return Defined(hi - lo)
}

// Differences returns the difference of every metric in the table.
func (t *Table) Differences() map[MetricName]Score {
	out := make(map[MetricName]Score, len(t.metrics))
	for _, m := range t.metrics {
		out[m] = t.Difference(m)
	}
	return out
}

// GroupRow is one subgroup's scores, aligned with GroupTable.Metrics.
type GroupRow struct {
	Group  dataset.Value `json:"group" yaml:"group"`
	Size   int           `json:"size" yaml:"size"`
	Scores []Score       `json:"scores" yaml:"scores"`
}

// GroupTable is a row-per-subgroup view restricted to some metrics.
type GroupTable struct {
	Attribute string       `json:"attribute" yaml:"attribute"`
	Metrics   []MetricName `json:"metrics" yaml:"metrics"`
	Rows      []GroupRow   `json:"rows" yaml:"rows"`
}

// ByGroup returns one row per subgroup holding the requested metrics.
func (t *Table) ByGroup(metrics ...MetricName) (GroupTable, error) {
	for _, m := range metrics {
		if _, ok := t.scores[m]; !ok {
			return GroupTable{}, fmt.Errorf("metric %q not in table for %q", m, t.attribute)
		}
	}
	out := GroupTable{
		Attribute: t.attribute,
		Metrics:   slices.Clone(metrics),
		Rows:      make([]GroupRow, len(t.groups)),
	}
	for i, g := range t.groups {
		row := GroupRow{Group: g.Key, Size: g.Size(), Scores: make([]Score, len(metrics))}
		for j, m := range metrics {
			row.Scores[j] = t.scores[m][i]
		}
		out.Rows[i] = row
	}
	return out, nil
}
