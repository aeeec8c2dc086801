package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/aegis/pkg/adapter"
)

// Validate checks if the configuration is valid for running an audit.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Target == "" {
		errs = append(errs, fmt.Errorf("target is required\nHint: Set target in aegis.yaml or pass --target"))
	}
	if len(c.Protected) == 0 {
		errs = append(errs, fmt.Errorf("at least one protected attribute is required\nHint: Set protected in aegis.yaml or pass --protected"))
	}
	seen := make(map[string]bool, len(c.Protected))
	for _, p := range c.Protected {
		if p == c.Target && p != "" {
			errs = append(errs, fmt.Errorf("target %q cannot also be a protected attribute", p))
		}
		if seen[p] {
			errs = append(errs, fmt.Errorf("protected attribute %q is listed more than once", p))
		}
		seen[p] = true
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("invalid output %q (expected %s)", c.OutputFormat, strings.Join(OutputFormats, "|")))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if err := ValidateSource(c.Source); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSource checks the source section on its own.
func ValidateSource(s SourceConfig) error {
	if s.Type == "" {
		return fmt.Errorf("source.type is required")
	}
	if !adapter.IsRegistered(s.Type) {
		return &adapter.UnknownAdapterError{Type: s.Type, Available: adapter.ListAdapters()}
	}
	if s.Path == "" && s.Table == "" && s.Query == "" {
		return fmt.Errorf("source needs a path, table or query\nHint: Pass --source <file> or set source.path in aegis.yaml")
	}
	return nil
}
