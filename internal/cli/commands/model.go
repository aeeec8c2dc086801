package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/internal/model"
	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/dataset"
	"github.com/spf13/cobra"
)

// ModelOptions holds options for the model command.
type ModelOptions struct {
	Script string
	FailOn string
}

// FindingsError is returned when a model audit reaches the --fail-on tier.
type FindingsError struct {
	Highest   core.Tier
	Threshold core.Tier
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("fairness findings at %s tier (fail-on %s)", e.Highest, e.Threshold)
}

// NewModelCommand creates the model command.
func NewModelCommand() *cobra.Command {
	opts := &ModelOptions{}

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Audit a model's predictions for group fairness",
		Long: `Predict the target for every row with the configured model, then compare
accuracy, precision and recall across each protected attribute and classify
the demographic parity and equalized odds differences as low, medium or high.

The model only sees the feature columns it declares. A model that reads a
protected attribute is rejected.`,
		Example: `  # Audit the linear model configured in aegis.yaml
  aegis model

  # Audit a Starlark model and fail CI on high findings
  aegis model --script models/credit.star --fail-on high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModel(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "Starlark model script (overrides model.type)")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit non-zero when any finding reaches this tier (low|medium|high)")

	_ = cmd.RegisterFlagCompletionFunc("fail-on", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"low", "medium", "high"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runModel(cmd *cobra.Command, opts *ModelOptions) error {
	s, err := sessionFrom(cmd)
	if err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	failOn := core.TierNotApplicable
	if opts.FailOn != "" {
		var ok bool
		if failOn, ok = core.ParseTier(opts.FailOn); !ok || failOn == core.TierNotApplicable {
			return fmt.Errorf("invalid --fail-on %q (expected low, medium or high)", opts.FailOn)
		}
	}

	mcfg := s.cfg.Model
	if opts.Script != "" {
		mcfg = model.Config{Type: "starlark", Script: opts.Script}
	}
	predictor, err := model.New(mcfg, s.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	frame, err := s.loadFrame(ctx)
	if err != nil {
		return err
	}
	truth, err := frame.Column(s.cfg.Target)
	if err != nil {
		return err
	}

	var auditOpts []audit.Option
	if s.cfg.PositiveLabel != nil {
		positive, err := resolvePositiveLabel(s.cfg.PositiveLabel, truth)
		if err != nil {
			return err
		}
		auditOpts = append(auditOpts, audit.WithPositiveLabel(positive))
	}

	records, err := s.auditor(auditOpts...).RunModelAudit(ctx, predictor, frame, truth, s.cfg.Protected)
	if err != nil {
		return err
	}

	rep := s.newReport(audit.KindModel, frame)
	rep.Model = modelName(predictor, mcfg)
	rep.Findings = records
	if err := s.record(ctx, rep); err != nil {
		return err
	}
	if err := s.r.RenderReport(rep); err != nil {
		return err
	}

	highest := rep.HighestTier()
	s.logger.Info("model audit finished", slog.String("model", rep.Model), slog.String("highest_tier", highest.String()))
	if failOn != core.TierNotApplicable && highest >= failOn {
		return &FindingsError{Highest: highest, Threshold: failOn}
	}
	return nil
}

// resolvePositiveLabel converts the configured label to a dataset value.
// Labels from env vars and flags arrive as text, so "1" matches a numeric 1
// in the target column when no exact match exists.
func resolvePositiveLabel(raw any, truth []dataset.Value) (dataset.Value, error) {
	v, err := dataset.Of(raw)
	if err != nil {
		return dataset.Null(), fmt.Errorf("invalid positive_label: %w", err)
	}
	for _, t := range truth {
		if t.Equal(v) {
			return v, nil
		}
	}
	for _, t := range truth {
		if !t.IsNull() && t.String() == v.String() {
			return t, nil
		}
	}
	return v, nil
}

func modelName(p audit.Predictor, cfg model.Config) string {
	if n, ok := p.(audit.Named); ok {
		return n.Name()
	}
	if cfg.Name != "" {
		return cfg.Name
	}
	return cfg.Type
}
