// Package adapter provides the data source interface Aegis loads audited
// datasets through.
//
// This package contains the public contract that all source adapters must
// implement. Concrete adapters are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Config is an alias for core.SourceConfig.
type Config = core.SourceConfig

// Source defines the interface that all source adapters must implement.
type Source interface {
	// Connect opens the underlying database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Load reads the dataset the config points at (file, table or query).
	Load(ctx context.Context) (*dataset.Frame, error)

	// QueryFrame runs a SELECT and returns its result set as a Frame.
	QueryFrame(ctx context.Context, query string, args ...any) (*dataset.Frame, error)
}

// LoadFrame connects a source built from cfg, loads its dataset and closes it.
func LoadFrame(ctx context.Context, cfg Config, opts ...Option) (*dataset.Frame, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	src, err := NewSource(cfg, o.logger)
	if err != nil {
		return nil, err
	}
	if err := src.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return src.Load(ctx)
}
