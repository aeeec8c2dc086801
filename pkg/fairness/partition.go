package fairness

import (
	"slices"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Subgroup is one value of a protected attribute and the rows holding it.
type Subgroup struct {
	Key  dataset.Value
	Rows []int
}

// Size returns the number of rows in the subgroup.
func (s Subgroup) Size() int { return len(s.Rows) }

// Partition splits a frame by the distinct values of one column.
//
// Subgroups are ordered by natural key order (dataset.Compare) with a null
// key, if any, last. Row indices within a subgroup are ascending. Together
// the subgroups cover every row exactly once.
func Partition(f *dataset.Frame, attribute string) ([]Subgroup, error) {
	values, err := f.Column(attribute)
	if err != nil {
		return nil, err
	}
	return PartitionValues(values), nil
}

// PartitionValues partitions row indices by value.
func PartitionValues(values []dataset.Value) []Subgroup {
	index := make(map[string]int)
	var groups []Subgroup
	for row, v := range values {
		k := v.Key()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Subgroup{Key: v})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	slices.SortFunc(groups, func(a, b Subgroup) int {
		switch {
		case a.Key.IsNull() && b.Key.IsNull():
			return 0
		case a.Key.IsNull():
			return 1
		case b.Key.IsNull():
			return -1
		}
		return dataset.Compare(a.Key, b.Key)
	})
	return groups
}
