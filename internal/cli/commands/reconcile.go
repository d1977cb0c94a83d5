package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/reconcile"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand() *cobra.Command {
	var exprPath, ref string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check expression genes against a control dataset",
		Long: `Match the gene columns of an expression matrix against the genes of a
reference control dataset and list the genes the reference lacks. Those
genes would be dropped by a run with the same --reference.`,
		Example: `  dysregnet reconcile --expression expr.csv --reference gene_tpm_lung.gct`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			defer cc.Close()
			ctx := cmd.Context()

			loader, err := cc.Loader(ctx)
			if err != nil {
				return err
			}
			frame, err := loader.ReadFile(ctx, exprPath)
			if err != nil {
				return fmt.Errorf("failed to read expression data: %w", err)
			}
			expr, err := frame.ToExpression()
			if err != nil {
				return err
			}

			catalog, err := cc.Catalog(ctx)
			if err != nil {
				return err
			}
			ds, err := catalog.Load(ctx, ref)
			if err != nil {
				return err
			}
			rec, err := reconcile.Reconcile(ds.IDs, expr.Genes)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d genes shared with %s (%s)\n",
				len(rec.Genes), len(rec.Genes)+len(rec.Missing), ds.Option.Title, rec.Outcome)
			return export.WriteFrame(cmd.OutOrStdout(), singleColumn("missing_gene", rec.Missing), cc.Cfg.Output, "missing genes")
		},
	}
	cmd.Flags().StringVar(&exprPath, "expression", "", "Expression matrix (csv, tsv or xlsx), samples as rows")
	cmd.Flags().StringVar(&ref, "reference", "", "Control dataset from the reference directory")
	_ = cmd.MarkFlagRequired("expression")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.RegisterFlagCompletionFunc("reference", completeReferences)

	return cmd
}
