package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/internal/testutil"
	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/leapstack-labs/aegis/pkg/fairness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func modelReport(id string, at time.Time, tiers ...core.Tier) *audit.Report {
	rec := audit.ModelRecord{
		Attribute: "gender",
		Performance: fairness.GroupTable{
			Attribute: "gender",
			Metrics:   []fairness.MetricName{fairness.MetricAccuracy},
			Rows: []fairness.GroupRow{
				{Group: dataset.String("Female"), Size: 50, Scores: []fairness.Score{fairness.Defined(0.7)}},
				{Group: dataset.String("Male"), Size: 50, Scores: []fairness.Score{fairness.Undefined()}},
			},
		},
	}
	names := []string{audit.DemographicParityDifference, audit.EqualizedOddsDifference}
	for i, tier := range tiers {
		score := fairness.Defined(0.05 * float64(i+1))
		if tier == core.TierNotApplicable {
			score = fairness.Undefined()
		}
		rec.Fairness = append(rec.Fairness, audit.FairnessMeasure{
			Name:   names[i%len(names)],
			Metric: fairness.MetricSelectionRate,
			Value:  score,
			Tier:   tier,
			Status: tier.Color(),
		})
	}
	return &audit.Report{
		ID:         id,
		Kind:       audit.KindModel,
		Source:     "duckdb:loans.csv",
		Target:     "loan_approved",
		Model:      "credit-cutoff",
		Attributes: []string{"gender"},
		Rows:       100,
		CreatedAt:  at,
		Findings:   []audit.ModelRecord{rec},
	}
}

func dataReport(id string, at time.Time) *audit.Report {
	return &audit.Report{
		ID:         id,
		Kind:       audit.KindData,
		Source:     "duckdb:loans.csv",
		Target:     "loan_approved",
		Attributes: []string{"race"},
		Rows:       100,
		CreatedAt:  at,
		Data: []audit.DataRecord{{
			Attribute: "race",
			Representation: []audit.GroupCount{
				{Group: dataset.String("Asian"), Count: 10},
			},
			TargetDistribution: []audit.TargetShare{
				{Group: dataset.String("Asian"), Target: dataset.Int(0), Count: 10, Percentage: 100},
			},
		}},
	}
}

var base = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.Error(t, store.SaveReport(ctx, &audit.Report{}))
	_, err := store.GetReport(ctx, "x")
	assert.Error(t, err)
	_, err = store.ListReports(ctx, ListOptions{})
	assert.Error(t, err)
	_, err = store.ListFindings(ctx, core.TierLow)
	assert.Error(t, err)
	assert.Error(t, store.Migrate())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	tests := []struct {
		name   string
		report *audit.Report
	}{
		{"model report", modelReport("a1b2c3", base, core.TierHigh, core.TierLow)},
		{"data report", dataReport("d4e5f6", base)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			require.NoError(t, store.SaveReport(ctx, tt.report))

			got, err := store.GetReport(ctx, tt.report.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.report, got)
		})
	}
}

func TestSQLiteStore_AssignsIDAndTime(t *testing.T) {
	store := setupTestStore(t)
	r := dataReport("", time.Time{})

	require.NoError(t, store.SaveReport(context.Background(), r))

	assert.Len(t, r.ID, 36, "uuid")
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, dataReport("same", base)))
	err := store.SaveReport(ctx, dataReport("same", base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save audit")
}

func TestSQLiteStore_RepeatedAttributeRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	r := modelReport("twice", base, core.TierLow, core.TierHigh)
	r.Attributes = []string{"gender", "gender"}
	r.Findings = append(r.Findings, r.Findings[0])

	err := store.SaveReport(ctx, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `more than one finding for attribute "gender"`)

	sums, err := store.ListReports(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, sums, "nothing is written")
}

func TestSQLiteStore_GetByPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, dataReport("abc-111", base)))
	require.NoError(t, store.SaveReport(ctx, dataReport("abc-222", base)))
	require.NoError(t, store.SaveReport(ctx, dataReport("abc", base)))

	got, err := store.GetReport(ctx, "abc-1")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", got.ID)

	got, err = store.GetReport(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID, "exact match wins over prefix")

	_, err = store.GetReport(ctx, "abc-")
	var ambiguous *AmbiguousIDError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"abc-111", "abc-222"}, ambiguous.Matches)

	_, err = store.GetReport(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetReport(ctx, "ab%")
	assert.ErrorIs(t, err, ErrNotFound, "LIKE wildcards are literal")
}

func TestSQLiteStore_ListReports(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, dataReport("old", base)))
	require.NoError(t, store.SaveReport(ctx, modelReport("mid", base.Add(time.Hour), core.TierMedium)))
	require.NoError(t, store.SaveReport(ctx, modelReport("new", base.Add(2*time.Hour+500*time.Millisecond), core.TierLow)))

	all, err := store.ListReports(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)

	assert.Equal(t, core.TierMedium, all[1].HighestTier)
	assert.Equal(t, core.TierNotApplicable, all[2].HighestTier)
	assert.Equal(t, []string{"race"}, all[2].Attributes)
	assert.Equal(t, base.Add(2*time.Hour+500*time.Millisecond), all[0].CreatedAt)
	assert.Equal(t, "credit-cutoff", all[0].Model)

	models, err := store.ListReports(ctx, ListOptions{Kind: audit.KindModel, Limit: 1})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "new", models[0].ID)
}

func TestSQLiteStore_ListFindings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, modelReport("r1", base, core.TierHigh, core.TierNotApplicable)))
	require.NoError(t, store.SaveReport(ctx, modelReport("r2", base.Add(time.Minute), core.TierMedium, core.TierLow)))

	tests := []struct {
		name    string
		min     core.Tier
		wantIDs []string
	}{
		{"high only", core.TierHigh, []string{"r1"}},
		{"medium and up", core.TierMedium, []string{"r2", "r1"}},
		{"everything", core.TierNotApplicable, []string{"r2", "r2", "r1", "r1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := store.ListFindings(ctx, tt.min)
			require.NoError(t, err)

			ids := make([]string, len(findings))
			for i, f := range findings {
				ids[i] = f.AuditID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	findings, err := store.ListFindings(ctx, core.TierNotApplicable)
	require.NoError(t, err)
	last := findings[len(findings)-1]
	assert.Equal(t, audit.EqualizedOddsDifference, last.Measure)
	assert.False(t, last.Value.IsDefined(), "undefined differences are stored as NULL")
	assert.Equal(t, core.TierNotApplicable, last.Tier)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, modelReport("gone", base, core.TierHigh)))
	require.NoError(t, store.DeleteReport(ctx, "go"))

	_, err := store.GetReport(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	findings, err := store.ListFindings(ctx, core.TierNotApplicable)
	require.NoError(t, err)
	assert.Empty(t, findings)

	assert.ErrorIs(t, store.DeleteReport(ctx, "gone"), ErrNotFound)
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.SaveReport(ctx, dataReport("persisted", base)))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetReport(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, audit.KindData, got.Kind)
}
