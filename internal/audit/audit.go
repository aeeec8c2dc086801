// Package audit runs representation and fairness audits over datasets and
// classifier predictions, one protected attribute at a time.
//
// Both entry points validate every required column before doing any work and
// either return a record for every requested attribute, in the order given,
// or an error and no records.
package audit

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Predictor produces predicted labels from a named feature subset.
type Predictor interface {
	// Features lists the columns the model reads.
	Features() []string

	// Predict returns one label per row of features. The frame holds
	// exactly the columns returned by Features.
	Predict(ctx context.Context, features *dataset.Frame) ([]dataset.Value, error)
}

// Named is implemented by predictors that can describe themselves.
type Named interface {
	Name() string
}

// Auditor runs audits. The zero value is not usable; call New.
type Auditor struct {
	logger      *slog.Logger
	positive    dataset.Value
	concurrency int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPositiveLabel sets the label treated as the favourable outcome.
// Defaults to the number 1.
func WithPositiveLabel(v dataset.Value) Option {
	return func(a *Auditor) {
		if !v.IsNull() {
			a.positive = v
		}
	}
}

// WithConcurrency analyses up to n attributes in parallel. Values below 2
// keep the audit sequential.
func WithConcurrency(n int) Option {
	return func(a *Auditor) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{
		logger:      slog.New(slog.DiscardHandler),
		positive:    dataset.Int(1),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// forEachAttribute runs fn for every attribute and returns the results in
// attribute order. The first error aborts the remaining work.
func forEachAttribute[T any](ctx context.Context, concurrency int, attributes []string, fn func(ctx context.Context, attribute string) (T, error)) ([]T, error) {
	out := make([]T, len(attributes))

	if concurrency < 2 || len(attributes) < 2 {
		for i, attr := range attributes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := fn(ctx, attr)
			if err != nil {
				return nil, err
			}
			out[i] = rec
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, attr := range attributes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := fn(gctx, attr)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
