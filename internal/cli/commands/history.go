package commands

import (
	"fmt"

	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/internal/state"
	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history list command.
type HistoryOptions struct {
	Kind  string
	Limit int
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded audits",
		Long: `List, show, filter and delete audits recorded in the state database.

Audit IDs may be shortened to any unique prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}
	addListFlags(cmd, opts)

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded audits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}
	addListFlags(list, opts)

	cmd.AddCommand(list, newHistoryShowCommand(), newHistoryFindingsCommand(), newHistoryDeleteCommand())
	return cmd
}

func addListFlags(cmd *cobra.Command, opts *HistoryOptions) {
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show audits of this kind (data|model)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of audits to show (0 for all)")
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	kind := audit.Kind(opts.Kind)
	if kind != "" && kind != audit.KindData && kind != audit.KindModel {
		return fmt.Errorf("invalid --kind %q (expected data or model)", opts.Kind)
	}

	s, err := sessionFrom(cmd)
	if err != nil {
		return err
	}
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sums, err := store.ListReports(cmd.Context(), state.ListOptions{Kind: kind, Limit: opts.Limit})
	if err != nil {
		return err
	}
	return s.r.RenderSummaries(sums)
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			store, err := s.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rep, err := store.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.r.RenderReport(rep)
		},
	}
}

func newHistoryFindingsCommand() *cobra.Command {
	var minTier string

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "List recorded fairness findings at or above a tier",
		Example: `  # Everything that needs review
  aegis history findings --min-tier medium`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tier, ok := core.ParseTier(minTier)
			if !ok {
				return fmt.Errorf("invalid --min-tier %q (expected low, medium or high)", minTier)
			}

			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			store, err := s.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			findings, err := store.ListFindings(cmd.Context(), tier)
			if err != nil {
				return err
			}
			return s.r.RenderFindings(findings, tier)
		},
	}

	cmd.Flags().StringVar(&minTier, "min-tier", "medium", "Lowest tier to include (low|medium|high)")
	return cmd
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a recorded audit",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			store, err := s.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteReport(cmd.Context(), args[0]); err != nil {
				return err
			}
			s.r.Success(fmt.Sprintf("Deleted audit %s", args[0]))
			return nil
		},
	}
}
