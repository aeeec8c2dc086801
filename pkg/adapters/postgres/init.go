// Package postgres provides the PostgreSQL source adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/aegis/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/aegis/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Source { return New(logger) })
}
