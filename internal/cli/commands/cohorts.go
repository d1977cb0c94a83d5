package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
)

// NewCohortsCommand creates the cohorts command.
func NewCohortsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cohorts",
		Short: "List cancer cohorts and their genes and patients",
		Long: `Query the precomputed cancer cohorts in the graph database.

Without a subcommand the cohort ids are listed.`,
		Example: `  dysregnet cohorts
  dysregnet cohorts genes BRCA
  dysregnet cohorts patients BRCA -o csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listFromGraph(cmd, "cohort", "cohorts", func(ctx context.Context, s *graphdb.Store) ([]string, error) {
				return s.CohortIDs(ctx)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:               "genes <cohort>",
		Short:             "List the genes of a cohort",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeCohorts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFromGraph(cmd, "gene", "genes", func(ctx context.Context, s *graphdb.Store) ([]string, error) {
				return s.GeneIDs(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:               "patients <cohort>",
		Short:             "List the patients of a cohort",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeCohorts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFromGraph(cmd, "patient", "patients", func(ctx context.Context, s *graphdb.Store) ([]string, error) {
				return s.PatientIDs(ctx, args[0])
			})
		},
	})

	return cmd
}

func listFromGraph(cmd *cobra.Command, column, noun string, list func(context.Context, *graphdb.Store) ([]string, error)) error {
	cc := NewCommandContext(cmd)
	defer cc.Close()

	store, err := cc.RequireGraph()
	if err != nil {
		return err
	}
	ids, err := list(cmd.Context(), store)
	if err != nil {
		return err
	}
	return export.WriteFrame(cmd.OutOrStdout(), singleColumn(column, ids), cc.Cfg.Output, noun)
}

func singleColumn(name string, values []string) *table.Frame {
	f := &table.Frame{Header: []string{name}, Rows: make([][]string, len(values))}
	for i, v := range values {
		f.Rows[i] = []string{v}
	}
	return f
}

// completeCohorts offers cohort ids when a graph database is reachable.
func completeCohorts(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cc := NewCommandContext(cmd)
	defer cc.Close()

	store, err := cc.RequireGraph()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids, err := store.CohortIDs(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
