// Package commands implements the aegis subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/internal/cli/config"
	"github.com/leapstack-labs/aegis/internal/cli/output"
	"github.com/leapstack-labs/aegis/internal/state"
	"github.com/leapstack-labs/aegis/pkg/adapter"
	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/spf13/cobra"
)

// session bundles what every command pulls out of the command context.
type session struct {
	cfg    *config.Config
	r      *output.Renderer
	logger *slog.Logger
}

func sessionFrom(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return &session{
		cfg:    cfg,
		r:      output.FromContext(ctx),
		logger: config.GetLogger(ctx),
	}, nil
}

// loadFrame reads the configured dataset.
func (s *session) loadFrame(ctx context.Context) (*dataset.Frame, error) {
	start := time.Now()
	frame, err := adapter.LoadFrame(ctx, s.cfg.Source, adapter.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.cfg.Source.Describe(), err)
	}
	s.logger.Info("dataset loaded",
		slog.String("source", s.cfg.Source.Describe()),
		slog.Int("rows", frame.RowCount()),
		slog.Int("columns", len(frame.Columns())),
		slog.String("elapsed", output.FormatDuration(time.Since(start))))
	return frame, nil
}

func (s *session) openStore() (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(s.logger)
	if err := store.Open(s.cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open audit history at %s: %w", s.cfg.StatePath, err)
	}
	return store, nil
}

// record saves rep to the audit history unless history is disabled.
func (s *session) record(ctx context.Context, rep *audit.Report) error {
	if !s.cfg.History {
		return nil
	}
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveReport(ctx, rep); err != nil {
		return err
	}
	s.logger.Info("audit recorded", slog.String("id", rep.ID), slog.String("state", s.cfg.StatePath))
	return nil
}

// newReport fills the provenance shared by data and model reports.
func (s *session) newReport(kind audit.Kind, frame *dataset.Frame) *audit.Report {
	return &audit.Report{
		Kind:       kind,
		Source:     s.cfg.Source.Describe(),
		Target:     s.cfg.Target,
		Attributes: s.cfg.Protected,
		Rows:       frame.RowCount(),
	}
}

func (s *session) auditor(opts ...audit.Option) *audit.Auditor {
	base := []audit.Option{
		audit.WithLogger(s.logger),
		audit.WithConcurrency(s.cfg.Concurrency),
	}
	return audit.New(append(base, opts...)...)
}
