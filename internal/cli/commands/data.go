package commands

import (
	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/spf13/cobra"
)

// NewDataCommand creates the data command.
func NewDataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "data",
		Short: "Audit a dataset for representation and outcome balance",
		Long: `Count the rows of every protected subgroup and break the target column
down within each subgroup.

The dataset is read through the configured source adapter. No model is involved.`,
		Example: `  # Audit a CSV file
  aegis data --source loans.csv --target loan_approved --protected gender,race

  # Use aegis.yaml and emit JSON
  aegis data -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runData(cmd)
		},
	}
}

func runData(cmd *cobra.Command) error {
	s, err := sessionFrom(cmd)
	if err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	frame, err := s.loadFrame(ctx)
	if err != nil {
		return err
	}

	records, err := s.auditor().RunDataAudit(ctx, frame, s.cfg.Target, s.cfg.Protected)
	if err != nil {
		return err
	}

	rep := s.newReport(audit.KindData, frame)
	rep.Data = records
	if err := s.record(ctx, rep); err != nil {
		return err
	}
	return s.r.RenderReport(rep)
}
