package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/aegis/internal/testutil"
	"github.com/leapstack-labs/aegis/pkg/adapter"
	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg adapter.Config) *Adapter {
	t.Helper()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("data file uses in-memory database", func(t *testing.T) {
		dir := t.TempDir()
		adp := connect(t, adapter.Config{Path: filepath.Join(dir, "loans.csv")})
		assert.True(t, adp.IsConnected())

		_, err := os.Stat(filepath.Join(dir, "loans.csv"))
		assert.True(t, os.IsNotExist(err), "connect must not create the data file")
	})

	t.Run("database file is opened", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.duckdb")
		connect(t, adapter.Config{Path: path})

		_, err := os.Stat(path)
		assert.NoError(t, err, "database file was not created")
	})

	t.Run("bad params", func(t *testing.T) {
		adp := New(nil)
		err := adp.Connect(context.Background(), adapter.Config{Params: map[string]any{"nope": 1}})
		require.Error(t, err)
		assert.False(t, adp.IsConnected())
	})
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)

	_, err := adp.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection not established")
}

func TestAdapter_LoadCSV(t *testing.T) {
	path := testutil.WriteLoanCSV(t, t.TempDir())
	adp := connect(t, adapter.Config{Type: "duckdb", Path: path})

	f, err := adp.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testutil.LoanHeader, f.Columns())
	assert.Equal(t, testutil.LoanFrame(t), f)
}

func TestAdapter_LoadCSVOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semi.csv")
	require.NoError(t, os.WriteFile(path, []byte("group;label\nA;1\nB;NA\n"), 0o600))

	adp := connect(t, adapter.Config{
		Path:   path,
		Params: map[string]any{"csv": map[string]any{"delim": ";", "nullstr": "NA"}},
	})

	f, err := adp.Load(context.Background())
	require.NoError(t, err)

	labels, err := f.Column("label")
	require.NoError(t, err)
	assert.Equal(t, []dataset.Value{dataset.Int(1), dataset.Null()}, labels)
}

func TestAdapter_LoadParquet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.parquet")

	writer := connect(t, adapter.Config{})
	require.NoError(t, writer.Exec(ctx,
		"COPY (SELECT * FROM (VALUES ('A', 0.5::DOUBLE), ('B', 0.75::DOUBLE)) t(grp, score)) TO "+adapter.QuoteLiteral(path)+" (FORMAT PARQUET)"))

	adp := connect(t, adapter.Config{Path: path})
	f, err := adp.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"grp", "score"}, f.Columns())
	scores, err := f.Column("score")
	require.NoError(t, err)
	assert.Equal(t, []dataset.Value{dataset.Number(0.5), dataset.Number(0.75)}, scores)
}

func TestAdapter_LoadTableAndQuery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	csvPath := testutil.WriteLoanCSV(t, dir)
	dbPath := filepath.Join(dir, "lending.duckdb")

	setup := New(nil)
	require.NoError(t, setup.Connect(ctx, adapter.Config{Path: dbPath}))
	require.NoError(t, setup.Exec(ctx,
		"CREATE TABLE applicants AS SELECT * FROM read_csv_auto("+adapter.QuoteLiteral(csvPath)+", header=true)"))
	require.NoError(t, setup.Close())

	t.Run("table", func(t *testing.T) {
		adp := connect(t, adapter.Config{Path: dbPath, Table: "applicants"})
		f, err := adp.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, testutil.LoanRows, f.RowCount())
	})

	t.Run("query", func(t *testing.T) {
		adp := connect(t, adapter.Config{
			Path:  dbPath,
			Query: "SELECT gender, loan_approved FROM applicants WHERE race = 'Asian'",
		})
		f, err := adp.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, f.RowCount())
		assert.Equal(t, []string{"gender", "loan_approved"}, f.Columns())
	})

	t.Run("database without table", func(t *testing.T) {
		adp := connect(t, adapter.Config{Path: dbPath})
		_, err := adp.Load(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set source.table or source.query")
	})
}

func TestAdapter_LoadErrors(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		adp := connect(t, adapter.Config{})
		_, err := adp.Load(context.Background())
		assert.ErrorIs(t, err, adapter.ErrNoDataset)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		adp := connect(t, adapter.Config{Path: "applicants.xlsx"})
		_, err := adp.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported file type ".xlsx"`)
	})

	t.Run("missing file", func(t *testing.T) {
		adp := connect(t, adapter.Config{Path: filepath.Join(t.TempDir(), "missing.csv")})
		_, err := adp.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute query")
	})
}

func TestConnect_WithSettings(t *testing.T) {
	adp := connect(t, adapter.Config{
		Params: map[string]any{
			"settings": map[string]any{"threads": 2},
		},
	})

	f, err := adp.QueryFrame(context.Background(), "SELECT current_setting('threads') AS threads")
	require.NoError(t, err)
	v, err := f.Value("threads", 0)
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())
}

func TestFileFormat(t *testing.T) {
	tests := map[string]string{
		"data.csv":              "csv",
		"DATA.CSV":              "csv",
		"data.tsv":              "csv",
		"data.csv.gz":           "csv",
		"s3://bucket/x.parquet": "parquet",
		"events.ndjson":         "json",
		"model.pkl":             "",
	}
	for path, want := range tests {
		assert.Equal(t, want, fileFormat(path), path)
	}
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "s3 with credential chain",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Region:   "us-west-2",
			},
			want: `CREATE SECRET (
    TYPE s3,
    PROVIDER credential_chain,
    REGION 'us-west-2'
)`,
		},
		{
			name: "s3 type only",
			cfg:  SecretConfig{Type: "s3"},
			want: `CREATE SECRET (
    TYPE s3
)`,
		},
		{
			name: "multiple scopes as []any",
			cfg: SecretConfig{
				Type:  "s3",
				Scope: []any{"s3://bucket1", "s3://bucket2"},
			},
			want: `CREATE SECRET (
    TYPE s3,
    SCOPE ('s3://bucket1', 's3://bucket2')
)`,
		},
		{
			name: "s3 compatible with endpoint and path style",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minioadmin",
				Secret:   "minioadmin",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   boolPtr(false),
				Scope:    "s3://audits",
			},
			want: `CREATE SECRET (
    TYPE s3,
    PROVIDER config,
    SCOPE 's3://audits',
    KEY_ID 'minioadmin',
    SECRET 'minioadmin',
    ENDPOINT 'localhost:9000',
    URL_STYLE 'path',
    USE_SSL false
)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}
