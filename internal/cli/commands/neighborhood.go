package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// GraphOptions select a neighborhood graph. Exactly one of Session and
// Cohort names the dataset.
type GraphOptions struct {
	Session        string
	Cohort         string
	Genes          []string
	Patient        string
	Compare        string
	MinFraction    float64
	MaxRegulations int
}

func (o *GraphOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.Session, "session", "", "Session id of a cached result")
	f.StringVar(&o.Cohort, "cohort", "", "Cancer cohort in the graph database (e.g. BRCA)")
	f.StringSliceVarP(&o.Genes, "gene", "g", nil, "Center genes (repeatable or comma-separated)")
	f.StringVar(&o.Patient, "patient", "", "Overlay the values of one sample")
	f.StringVar(&o.Compare, "compare", "", "Overlay fractions of a second cohort (cohort graphs only)")
	f.Float64Var(&o.MinFraction, "min-fraction", 0, "Drop edges dysregulated in fewer samples than this fraction")
	f.IntVar(&o.MaxRegulations, "max-regulations", 0, "Keep at most this many edges per direction (0 for all)")
	_ = cmd.MarkFlagRequired("gene")
	_ = cmd.RegisterFlagCompletionFunc("cohort", completeCohorts)
	_ = cmd.RegisterFlagCompletionFunc("compare", completeCohorts)
}

var errGraphDataset = errors.New("exactly one of --session or --cohort is required")

// source resolves the edge source named by the options.
func (o *GraphOptions) source(ctx context.Context, cc *CommandContext) (neighborhood.EdgeSource, error) {
	switch {
	case (o.Session == "") == (o.Cohort == ""):
		return nil, errGraphDataset
	case o.Session != "":
		if o.Compare != "" {
			return nil, core.NewValidationError("compare", "comparison is only available for cohort graphs")
		}
		resultCache, err := cc.Cache()
		if err != nil {
			return nil, err
		}
		entry, err := resultCache.Get(ctx, o.Session)
		if err != nil {
			return nil, err
		}
		return neighborhood.NewTableSource(entry.Results), nil
	default:
		store, err := cc.RequireGraph()
		if err != nil {
			return nil, err
		}
		return neighborhood.NewGraphSource(store, o.Cohort)
	}
}

// assemble builds the filtered neighborhood graph.
func (o *GraphOptions) assemble(ctx context.Context, cc *CommandContext) (*core.NeighborhoodGraph, error) {
	if o.MinFraction < 0 || o.MinFraction > 1 {
		return nil, core.NewValidationError("min-fraction", fmt.Sprintf("must be in [0,1], got %g", o.MinFraction))
	}
	if o.MaxRegulations < 0 {
		return nil, core.NewValidationError("max-regulations", "must not be negative")
	}
	src, err := o.source(ctx, cc)
	if err != nil {
		return nil, err
	}
	graph, err := cc.Assembler().Assemble(ctx, o.Genes, src, neighborhood.Options{
		Patient:       o.Patient,
		CompareCohort: o.Compare,
	})
	if err != nil {
		return nil, err
	}
	return neighborhood.Filter(graph, neighborhood.FilterOptions{
		MinFraction:    o.MinFraction,
		MaxRegulations: o.MaxRegulations,
	}), nil
}

// NewNeighborhoodCommand creates the neighborhood command.
func NewNeighborhoodCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:     "neighborhood",
		Aliases: []string{"nb"},
		Short:   "Show the regulatory neighborhood of genes",
		Long: `Assemble the regulators and targets of the given genes from a cached
session result or a cancer cohort and print every edge with its type and
the fraction of samples in which it is dysregulated.`,
		Example: `  # Neighborhood of TP53 in the breast cancer cohort
  dysregnet neighborhood --cohort BRCA --gene TP53

  # Two genes from a local run, as JSON
  dysregnet neighborhood --session 5f0c... --gene MYC,MAX -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			defer cc.Close()

			graph, err := opts.assemble(cmd.Context(), cc)
			if err != nil {
				return err
			}
			if len(graph.Edges) == 0 {
				cc.Logger.Warn("no edges found", "genes", opts.Genes)
			}
			return export.WriteTable(cmd.OutOrStdout(), export.GraphRows(graph), cc.Cfg.Output)
		},
	}
	opts.addFlags(cmd)

	return cmd
}
