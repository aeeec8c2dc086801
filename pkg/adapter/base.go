package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// ErrNoDataset is returned by Load when the config names neither a file, a
// table nor a query.
var ErrNoDataset = errors.New("source config names no path, table or query")

// BaseSQLSource provides common database/sql functionality for sources.
// Embed this struct in concrete adapters to get standard Close, Exec and
// QueryFrame implementations.
type BaseSQLSource struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLSource) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLSource) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// QueryFrame executes a query and reads the whole result set into a Frame.
func (b *BaseSQLSource) QueryFrame(ctx context.Context, query string, args ...any) (*dataset.Frame, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	f, err := ScanFrame(rows)
	if err != nil {
		return nil, err
	}
	if b.Logger != nil {
		b.Logger.Debug("query loaded", "rows", f.RowCount(), "columns", len(f.Columns()))
	}
	return f, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLSource) IsConnected() bool {
	return b.DB != nil
}

// ScanFrame reads every remaining row of rows into a Frame. Column values
// are converted with dataset.Of; *big.Int becomes a number, and other driver
// types are accepted if they expose Float64() or String(). Decimal columns a driver returns as
// text are parsed as numbers.
func ScanFrame(rows *sql.Rows) (*dataset.Frame, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	decimal := make([]bool, len(names))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			switch strings.ToUpper(ct.DatabaseTypeName()) {
			case "NUMERIC", "DECIMAL":
				decimal[i] = true
			}
		}
	}

	cols := make([]dataset.Column, len(names))
	for i, name := range names {
		cols[i] = dataset.Column{Name: name}
	}

	raw := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range raw {
		dest[i] = &raw[i]
	}

	row := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", row, err)
		}
		for i, v := range raw {
			if decimal[i] {
				v = parseDecimal(v)
			}
			val, err := convert(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, names[i], err)
			}
			cols[i].Values = append(cols[i].Values, val)
		}
		row++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return dataset.New(cols...)
}

func convert(v any) (dataset.Value, error) {
	val, err := dataset.Of(v)
	if err == nil {
		return val, nil
	}
	switch x := v.(type) {
	case *big.Int:
		// HUGEINT columns, e.g. DuckDB SUM over integers
		if x == nil {
			return dataset.Null(), nil
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return dataset.Number(f), nil
	case interface{ Float64() float64 }:
		return dataset.Number(x.Float64()), nil
	case fmt.Stringer:
		return dataset.String(x.String()), nil
	}
	return dataset.Null(), err
}

func parseDecimal(v any) any {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return v
}

// QuoteIdentifier double-quotes each dot-separated part of a table name.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// QuoteLiteral single-quotes s as a SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
