// Package config provides configuration management for the aegis CLI.
//
// The source and model sections reuse the shared types from pkg/core and
// internal/model, re-exported here via type aliases for convenience.
package config

import (
	"github.com/leapstack-labs/aegis/internal/model"
	"github.com/leapstack-labs/aegis/pkg/core"
)

// SourceConfig is an alias for the shared dataset source configuration.
type SourceConfig = core.SourceConfig

// ModelConfig is an alias for the model configuration.
type ModelConfig = model.Config

// Config holds all CLI configuration options.
type Config struct {
	Source        SourceConfig `koanf:"source"`
	Target        string       `koanf:"target"`
	Protected     []string     `koanf:"protected"`
	PositiveLabel any          `koanf:"positive_label"`
	Model         ModelConfig  `koanf:"model"`
	StatePath     string       `koanf:"state_path"`
	History       bool         `koanf:"history"`
	Verbose       bool         `koanf:"verbose"`
	OutputFormat  string       `koanf:"output"`
	Concurrency   int          `koanf:"concurrency"`
}

// Default configuration values.
const (
	DefaultSourceType  = "duckdb"
	DefaultStateFile   = ".aegis/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultConcurrency = 1
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json", "yaml"}
