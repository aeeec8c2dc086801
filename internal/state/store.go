// Package state persists audit history in SQLite.
//
// Every saved report keeps its full JSON document plus one row per fairness
// measure, so past findings can be listed by tier without decoding reports.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/fairness"
)

// ErrNotFound is returned when no audit matches an ID.
var ErrNotFound = errors.New("audit not found")

// AmbiguousIDError is returned when an ID prefix matches several audits.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("audit id %q is ambiguous: matches %v", e.Prefix, e.Matches)
}

// Store is the audit history contract.
type Store interface {
	SaveReport(ctx context.Context, r *audit.Report) error
	GetReport(ctx context.Context, id string) (*audit.Report, error)
	ListReports(ctx context.Context, opts ListOptions) ([]Summary, error)
	ListFindings(ctx context.Context, minTier core.Tier) ([]Finding, error)
	DeleteReport(ctx context.Context, id string) error
	Close() error
}

// ListOptions filters ListReports.
type ListOptions struct {
	Kind  audit.Kind // empty means all kinds
	Limit int        // zero means no limit
}

// Summary is one row of the audit history.
type Summary struct {
	ID          string     `json:"id" yaml:"id"`
	Kind        audit.Kind `json:"kind" yaml:"kind"`
	Source      string     `json:"source" yaml:"source"`
	Target      string     `json:"target" yaml:"target"`
	Model       string     `json:"model,omitempty" yaml:"model,omitempty"`
	Attributes  []string   `json:"attributes" yaml:"attributes"`
	Rows        int        `json:"rows" yaml:"rows"`
	HighestTier core.Tier  `json:"highest_tier" yaml:"highest_tier"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
}

// Finding is one stored fairness measure.
type Finding struct {
	AuditID   string         `json:"audit_id" yaml:"audit_id"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Source    string         `json:"source" yaml:"source"`
	Model     string         `json:"model" yaml:"model"`
	Attribute string         `json:"attribute" yaml:"attribute"`
	Measure   string         `json:"measure" yaml:"measure"`
	Value     fairness.Score `json:"value" yaml:"value"`
	Tier      core.Tier      `json:"tier" yaml:"tier"`
}
