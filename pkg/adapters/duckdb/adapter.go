package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/aegis/pkg/adapter"
	"github.com/leapstack-labs/aegis/pkg/dataset"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements adapter.Source for DuckDB.
type Adapter struct {
	adapter.BaseSQLSource
	params *Params
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLSource: adapter.BaseSQLSource{Logger: logger},
	}
}

// Connect opens DuckDB. A database file path (.duckdb, .db, .ddb) is opened
// directly; any other path is a data file read through an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	dbPath := ":memory:"
	if isDatabaseFile(cfg.Path) {
		dbPath = cfg.Path
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", dbPath))

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(p.Settings)) {
		stmt := fmt.Sprintf("SET %s = %s", key, adapter.QuoteLiteral(p.Settings[key]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}

	for i, secret := range p.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create secret %d (%s): %w", i, secret.Type, err)
		}
	}
	return nil
}

// Load reads the configured dataset. Query wins over Table, Table over Path.
func (a *Adapter) Load(ctx context.Context) (*dataset.Frame, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	query, err := a.loadQuery()
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("loading dataset", slog.String("source", a.Cfg.Describe()))
	return a.QueryFrame(ctx, query)
}

func (a *Adapter) loadQuery() (string, error) {
	cfg := a.Cfg
	switch {
	case cfg.Query != "":
		return cfg.Query, nil
	case cfg.Table != "":
		return "SELECT * FROM " + adapter.QuoteIdentifier(cfg.Table), nil
	case cfg.Path != "" && !isDatabaseFile(cfg.Path):
		reader, err := a.readerFor(cfg.Path)
		if err != nil {
			return "", err
		}
		return "SELECT * FROM " + reader, nil
	case cfg.Path != "":
		return "", fmt.Errorf("duckdb database %s: set source.table or source.query", cfg.Path)
	default:
		return "", adapter.ErrNoDataset
	}
}

// readerFor returns the DuckDB table function reading path.
func (a *Adapter) readerFor(path string) (string, error) {
	loc := path
	if !isRemote(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		loc = abs
	}

	switch fileFormat(path) {
	case "csv":
		opts := []string{"header=true"}
		if a.params != nil {
			for _, k := range slices.Sorted(maps.Keys(a.params.CSV)) {
				opts = append(opts, fmt.Sprintf("%s=%s", k, adapter.QuoteLiteral(a.params.CSV[k])))
			}
		}
		return fmt.Sprintf("read_csv_auto(%s, %s)", adapter.QuoteLiteral(loc), strings.Join(opts, ", ")), nil
	case "parquet":
		return fmt.Sprintf("read_parquet(%s)", adapter.QuoteLiteral(loc)), nil
	case "json":
		return fmt.Sprintf("read_json_auto(%s)", adapter.QuoteLiteral(loc)), nil
	default:
		return "", fmt.Errorf("unsupported file type %q (want .csv, .tsv, .parquet, .json or .ndjson)", filepath.Ext(path))
	}
}

func fileFormat(path string) string {
	p := strings.ToLower(path)
	p = strings.TrimSuffix(p, ".gz")
	p = strings.TrimSuffix(p, ".zst")
	switch filepath.Ext(p) {
	case ".csv", ".tsv", ".txt":
		return "csv"
	case ".parquet", ".pq":
		return "parquet"
	case ".json", ".jsonl", ".ndjson":
		return "json"
	default:
		return ""
	}
}

func isDatabaseFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".db", ".ddb":
		return true
	}
	return false
}

func isRemote(path string) bool {
	return strings.Contains(path, "://")
}

// buildCreateSecretSQL renders a CREATE SECRET statement for cfg.
func buildCreateSecretSQL(cfg SecretConfig) string {
	parts := []string{"TYPE " + cfg.Type}
	if cfg.Provider != "" {
		parts = append(parts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		parts = append(parts, "REGION "+adapter.QuoteLiteral(cfg.Region))
	}
	if scope := formatScope(cfg.Scope); scope != "" {
		parts = append(parts, "SCOPE "+scope)
	}
	if cfg.KeyID != "" {
		parts = append(parts, "KEY_ID "+adapter.QuoteLiteral(cfg.KeyID))
	}
	if cfg.Secret != "" {
		parts = append(parts, "SECRET "+adapter.QuoteLiteral(cfg.Secret))
	}
	if cfg.Endpoint != "" {
		parts = append(parts, "ENDPOINT "+adapter.QuoteLiteral(cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		parts = append(parts, "URL_STYLE "+adapter.QuoteLiteral(cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		parts = append(parts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(parts, ",\n    ") + "\n)"
}

func formatScope(scope any) string {
	var items []string
	switch s := scope.(type) {
	case nil:
		return ""
	case string:
		return adapter.QuoteLiteral(s)
	case []string:
		items = s
	case []any:
		for _, v := range s {
			items = append(items, fmt.Sprint(v))
		}
	default:
		return adapter.QuoteLiteral(fmt.Sprint(s))
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = adapter.QuoteLiteral(it)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// Ensure Adapter implements adapter.Source interface
var _ adapter.Source = (*Adapter)(nil)
