// Package core defines the shared language of aegis.
//
// This package contains:
//   - Severity tiers for fairness differences (Tier)
//   - Dataset source configuration (SourceConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
