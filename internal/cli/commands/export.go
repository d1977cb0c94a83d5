package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Export formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
	formatXLSX = "xlsx"
)

// NewExportCommand creates the export command and its subcommands.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export neighborhood graphs and session results",
		Long: `Write a neighborhood graph as an edge table or a rendered image, or the
full dysregulation matrix of a cached session.`,
	}

	cmd.AddCommand(newExportGraphCommand())
	cmd.AddCommand(newExportResultCommand())

	return cmd
}

func newExportGraphCommand() *cobra.Command {
	opts := &GraphOptions{}
	var format, out string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export a neighborhood graph",
		Example: `  # Edge table of the TP53 neighborhood in BRCA
  dysregnet export graph --cohort BRCA --gene TP53 > tp53.csv

  # Rendered image
  dysregnet export graph --cohort BRCA --gene TP53 --format svg --out tp53.svg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			defer cc.Close()

			ctx := cmd.Context()
			graph, err := opts.assemble(ctx, cc)
			if err != nil {
				return err
			}
			return writeTo(cmd, out, func(w io.Writer) error {
				return writeGraph(ctx, w, graph, format)
			})
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "Output format (csv|dot|svg|png)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{export.FormatCSV, formatDOT, formatSVG, formatPNG}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func writeGraph(ctx context.Context, w io.Writer, graph *core.NeighborhoodGraph, format string) error {
	switch format {
	case export.FormatCSV:
		return export.WriteCSV(w, export.GraphRows(graph))
	case formatDOT:
		return export.RenderDOT(ctx, w, graph)
	case formatSVG:
		return export.RenderSVG(ctx, w, graph)
	case formatPNG:
		return export.RenderPNG(ctx, w, graph)
	default:
		return core.NewValidationError("format", fmt.Sprintf("unknown graph format %q", format))
	}
}

func newExportResultCommand() *cobra.Command {
	var sessionID, format, out string

	cmd := &cobra.Command{
		Use:     "result",
		Short:   "Export the dysregulation matrix of a session",
		Example: `  dysregnet export result --session 5f0c... --format xlsx --out result.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != export.FormatCSV && format != formatXLSX {
				return core.NewValidationError("format", fmt.Sprintf("unknown result format %q", format))
			}

			cc := NewCommandContext(cmd)
			defer cc.Close()

			resultCache, err := cc.Cache()
			if err != nil {
				return err
			}
			entry, err := resultCache.Get(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			return writeTo(cmd, out, func(w io.Writer) error {
				if format == formatXLSX {
					return export.WriteResultXLSX(w, entry.Results)
				}
				return export.WriteResultCSV(w, entry.Results)
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id of a cached result")
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "Output format (csv|xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

// writeTo runs write against path, or stdout when path is empty.
func writeTo(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path) //nolint:gosec // path is user-provided
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
