package audit

import (
	"time"

	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/leapstack-labs/aegis/pkg/fairness"
)

// GroupCount is the number of rows in one subgroup.
type GroupCount struct {
	Group dataset.Value `json:"group" yaml:"group"`
	Count int           `json:"count" yaml:"count"`
}

// TargetShare is the share of one target value within one subgroup.
type TargetShare struct {
	Group      dataset.Value `json:"group" yaml:"group"`
	Target     dataset.Value `json:"target" yaml:"target"`
	Count      int           `json:"count" yaml:"count"`
	Percentage float64       `json:"percentage" yaml:"percentage"`
}

// DataRecord is the data-audit analysis of one protected attribute.
type DataRecord struct {
	Attribute          string        `json:"attribute" yaml:"attribute"`
	Representation     []GroupCount  `json:"representation" yaml:"representation"`
	TargetDistribution []TargetShare `json:"target_distribution" yaml:"target_distribution"`
}

// FairnessMeasure is a named, classified fairness difference.
type FairnessMeasure struct {
	Name           string              `json:"name" yaml:"name"`
	Metric         fairness.MetricName `json:"metric" yaml:"metric"`
	Value          fairness.Score      `json:"value" yaml:"value"`
	Tier           core.Tier           `json:"tier" yaml:"tier"`
	Status         string              `json:"status" yaml:"status"`
	Interpretation string              `json:"interpretation" yaml:"interpretation"`
}

// ModelRecord is the model-audit analysis of one protected attribute.
type ModelRecord struct {
	Attribute   string              `json:"attribute" yaml:"attribute"`
	Performance fairness.GroupTable `json:"performance" yaml:"performance"`
	Fairness    []FairnessMeasure   `json:"fairness" yaml:"fairness"`
}

// Kind distinguishes data audits from model audits.
type Kind string

// Audit kinds.
const (
	KindData  Kind = "data"
	KindModel Kind = "model"
)

// Report wraps the records of one audit call with its provenance.
// Exactly one of Data or Model is populated, according to Kind.
type Report struct {
	ID         string        `json:"id" yaml:"id"`
	Kind       Kind          `json:"kind" yaml:"kind"`
	Source     string        `json:"source" yaml:"source"`
	Target     string        `json:"target" yaml:"target"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	Attributes []string      `json:"attributes" yaml:"attributes"`
	Rows       int           `json:"rows" yaml:"rows"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
	Data       []DataRecord  `json:"data,omitempty" yaml:"data,omitempty"`
	Findings   []ModelRecord `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// HighestTier returns the most severe tier among a model report's measures.
func (r *Report) HighestTier() core.Tier {
	worst := core.TierNotApplicable
	for _, rec := range r.Findings {
		for _, m := range rec.Fairness {
			if m.Tier > worst {
				worst = m.Tier
			}
		}
	}
	return worst
}
