package model

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Column replays predictions stored in a dataset column, for models scored
// outside Aegis.
type Column struct {
	name   string
	column string
}

// NewColumn builds a Column model reading predictions from column.
func NewColumn(column, name string) (*Column, error) {
	if column == "" {
		return nil, fmt.Errorf("column model needs a prediction column")
	}
	if name == "" {
		name = "column:" + column
	}
	return &Column{name: name, column: column}, nil
}

// Name returns the model name.
func (m *Column) Name() string { return m.name }

// Features returns the prediction column.
func (m *Column) Features() []string { return []string{m.column} }

// Predict returns the prediction column unchanged.
func (m *Column) Predict(_ context.Context, f *dataset.Frame) ([]dataset.Value, error) {
	return f.Column(m.column)
}
