package audit

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/leapstack-labs/aegis/pkg/fairness"
)

// RunDataAudit reports, for every protected attribute, the size of each
// subgroup and the distribution of the target column within it.
func (a *Auditor) RunDataAudit(ctx context.Context, frame *dataset.Frame, target string, attributes []string) ([]DataRecord, error) {
	if err := frame.Require(target); err != nil {
		return nil, err
	}
	if err := frame.Require(attributes...); err != nil {
		return nil, err
	}

	targets, err := frame.Column(target)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("starting data audit",
		"rows", frame.RowCount(), "target", target, "attributes", attributes)

	return forEachAttribute(ctx, a.concurrency, attributes, func(_ context.Context, attr string) (DataRecord, error) {
		groups, err := fairness.Partition(frame, attr)
		if err != nil {
			return DataRecord{}, err
		}
		table, err := fairness.NewTable(attr, groups, fairness.Labels{}, fairness.RepresentationCount)
		if err != nil {
			return DataRecord{}, fmt.Errorf("attribute %s: %w", attr, err)
		}

		rec := DataRecord{Attribute: attr}
		for _, g := range groups {
			count, _ := table.Value(fairness.MetricRepresentationCount, g.Key)
			n, _ := count.Value()
			rec.Representation = append(rec.Representation, GroupCount{Group: g.Key, Count: int(n)})
			rec.TargetDistribution = append(rec.TargetDistribution, targetShares(g, targets)...)
		}

		a.logger.Debug("analysed attribute", "attribute", attr, "subgroups", len(groups))
		return rec, nil
	})
}

// targetShares returns the percentage of each non-null target value within
// the subgroup, in natural value order. Null targets are not counted.
func targetShares(g fairness.Subgroup, targets []dataset.Value) []TargetShare {
	values := make([]dataset.Value, 0, len(g.Rows))
	for _, r := range g.Rows {
		if !targets[r].IsNull() {
			values = append(values, targets[r])
		}
	}
	if len(values) == 0 {
		return nil
	}

	counts := fairness.PartitionValues(values)

	shares := make([]TargetShare, len(counts))
	for i, c := range counts {
		shares[i] = TargetShare{
			Group:      g.Key,
			Target:     c.Key,
			Count:      c.Size(),
			Percentage: float64(c.Size()) / float64(len(values)) * 100,
		}
	}
	return shares
}
