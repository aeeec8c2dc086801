// Package fairness computes group-wise metrics and cross-group disparities.
//
// The flow for one protected attribute is:
//
//	groups, _ := fairness.Partition(frame, "gender")
//	table, _ := fairness.NewTable("gender", groups, labels, fairness.SelectionRate, fairness.TruePositiveRate)
//	diff := table.Difference(fairness.MetricSelectionRate)
//	tier := fairness.Classify(diff)
//
// Metrics that cannot be computed for a subgroup (an empty denominator) yield
// an undefined Score rather than an error or a zero. Undefined scores are
// skipped by Difference, and a Difference with fewer than two defined scores
// is itself undefined.
package fairness
