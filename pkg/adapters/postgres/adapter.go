package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/aegis/pkg/adapter"
	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Adapter implements adapter.Source for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLSource
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLSource: adapter.BaseSQLSource{Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	connCfg, err := pgx.ParseConfig(buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("invalid postgres connection settings: %w", err)
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", connCfg.Host), slog.String("database", connCfg.Database))

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Load reads the configured table or query.
func (a *Adapter) Load(ctx context.Context) (*dataset.Frame, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	query, err := loadQuery(a.Cfg)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("loading dataset", slog.String("source", a.Cfg.Describe()))
	return a.QueryFrame(ctx, query)
}

func loadQuery(cfg adapter.Config) (string, error) {
	switch {
	case cfg.Query != "":
		return cfg.Query, nil
	case cfg.Table != "":
		return "SELECT * FROM " + adapter.QuoteIdentifier(cfg.Table), nil
	case cfg.Path != "":
		return "", fmt.Errorf("postgres sources read tables or queries, not files (got path %s)", cfg.Path)
	default:
		return "", adapter.ErrNoDataset
	}
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
// Options other than sslmode are appended in key order.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + host,
		fmt.Sprintf("port=%d", port),
		"dbname=" + cfg.Database,
		"sslmode=" + sslmode,
	}
	if cfg.User != "" {
		parts = append(parts, "user="+cfg.User)
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(cfg.Password))
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Options)) {
		if k == "sslmode" {
			continue
		}
		parts = append(parts, k+"="+quoteDSNValue(cfg.Options[k]))
	}

	return strings.Join(parts, " ")
}

// quoteDSNValue quotes values containing spaces or quotes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Ensure Adapter implements adapter.Source interface
var _ adapter.Source = (*Adapter)(nil)
