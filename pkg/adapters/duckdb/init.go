// Package duckdb provides the DuckDB source adapter.
//
// DuckDB reads CSV, Parquet and JSON files directly (locally or from cloud
// storage through httpfs) and tables in DuckDB database files.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/aegis/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/aegis/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Source { return New(logger) })
}
