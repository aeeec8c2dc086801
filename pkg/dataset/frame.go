// Package dataset provides the read-only tabular view audited by Aegis.
//
// A Frame holds named, row-aligned columns of scalar Values. Frames are
// immutable: every accessor hands out copies, and Select builds a new Frame.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMissingColumn is matched by every MissingColumnError via errors.Is.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError is returned when a required column is not in a Frame.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// Is reports whether target is ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Column is a named sequence of values, one per row.
type Column struct {
	Name   string
	Values []Value
}

// Frame is an immutable set of row-aligned named columns.
type Frame struct {
	names []string
	cols  map[string][]Value
	rows  int
}

// New builds a Frame from columns. Every column must have the same length and
// a unique, non-empty name.
func New(columns ...Column) (*Frame, error) {
	f := &Frame{
		names: make([]string, 0, len(columns)),
		cols:  make(map[string][]Value, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := f.cols[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			f.rows = len(c.Values)
		} else if len(c.Values) != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), f.rows)
		}
		f.names = append(f.names, c.Name)
		f.cols[c.Name] = slices.Clone(c.Values)
	}
	return f, nil
}

// FromRecords builds a Frame from a header and row-major Go values.
// Each cell is converted with Of.
func FromRecords(header []string, records [][]any) (*Frame, error) {
	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Values: make([]Value, len(records))}
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", r, len(rec), len(header))
		}
		for c, cell := range rec {
			v, err := Of(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r, header[c], err)
			}
			columns[c].Values[r] = v
		}
	}
	return New(columns...)
}

// RowCount returns the number of rows.
func (f *Frame) RowCount() int { return f.rows }

// Columns returns the column names in construction order.
func (f *Frame) Columns() []string { return slices.Clone(f.names) }

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Require returns a MissingColumnError for the first name not in the frame.
func (f *Frame) Require(names ...string) error {
	for _, name := range names {
		if !f.Has(name) {
			return &MissingColumnError{Column: name, Available: f.Columns()}
		}
	}
	return nil
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]Value, error) {
	vals, ok := f.cols[name]
	if !ok {
		return nil, &MissingColumnError{Column: name, Available: f.Columns()}
	}
	return slices.Clone(vals), nil
}

// Value returns a single cell.
func (f *Frame) Value(column string, row int) (Value, error) {
	vals, ok := f.cols[column]
	if !ok {
		return Null(), &MissingColumnError{Column: column, Available: f.Columns()}
	}
	if row < 0 || row >= f.rows {
		return Null(), fmt.Errorf("row %d out of range [0,%d)", row, f.rows)
	}
	return vals[row], nil
}

// Row returns the named cells of one row.
func (f *Frame) Row(row int) (map[string]Value, error) {
	if row < 0 || row >= f.rows {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, f.rows)
	}
	out := make(map[string]Value, len(f.names))
	for _, name := range f.names {
		out[name] = f.cols[name][row]
	}
	return out, nil
}

// Select returns a new frame restricted to the named columns, in the order
// given. Columns not selected are unreachable from the result.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if err := f.Require(names...); err != nil {
		return nil, err
	}
	out := &Frame{
		names: make([]string, 0, len(names)),
		cols:  make(map[string][]Value, len(names)),
		rows:  f.rows,
	}
	for _, name := range names {
		if _, dup := out.cols[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.cols[name] = f.cols[name]
	}
	return out, nil
}
