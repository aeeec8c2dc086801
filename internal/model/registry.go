// Package model provides the classifiers an audit can evaluate.
//
// Every model implements audit.Predictor and declares the columns it reads.
// Models are built from a Config by type name through a registry, in the
// same way source adapters are.
package model

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/aegis/internal/audit"
)

// Config describes a model. Which fields apply depends on Type.
type Config struct {
	// Type selects the implementation ("linear", "starlark", "column").
	Type string `koanf:"type"`

	// Name labels the model in reports. Defaults to Type.
	Name string `koanf:"name"`

	// Features are the input columns (linear).
	Features []string `koanf:"features"`

	// Weights maps feature name to coefficient (linear).
	Weights map[string]float64 `koanf:"weights"`

	// Intercept is the bias term (linear).
	Intercept float64 `koanf:"intercept"`

	// Threshold is the probability at or above which the positive label is
	// predicted (linear). Nil defaults to 0.5; an explicit 0 predicts every
	// row positive.
	Threshold *float64 `koanf:"threshold"`

	// Script is the path of a Starlark model file (starlark).
	Script string `koanf:"script"`

	// Column holds precomputed predictions (column).
	Column string `koanf:"column"`
}

// Factory builds a model from its config.
type Factory func(cfg Config, logger *slog.Logger) (audit.Predictor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a model factory to the registry.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New builds the model described by cfg.
// The logger parameter is passed to the model (nil uses a discard logger).
func New(cfg Config, logger *slog.Logger) (audit.Predictor, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("model type not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownModelError{Type: cfg.Type, Available: ListModels()}
	}
	return factory(cfg, logger)
}

// ListModels returns all registered model types (sorted).
func ListModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownModelError is returned when an unknown model type is requested.
type UnknownModelError struct {
	Type      string
	Available []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model type %q\nAvailable models: %v\nHint: Check model.type in aegis.yaml", e.Type, e.Available)
}

func init() {
	Register("linear", func(cfg Config, logger *slog.Logger) (audit.Predictor, error) {
		return NewLinear(cfg, logger)
	})
	Register("starlark", func(cfg Config, logger *slog.Logger) (audit.Predictor, error) {
		return LoadStarlark(cfg.Script, cfg.Name, logger)
	})
	Register("column", func(cfg Config, _ *slog.Logger) (audit.Predictor, error) {
		return NewColumn(cfg.Column, cfg.Name)
	})
}
