package commands

import (
	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
)

// NewReferencesCommand creates the references command.
func NewReferencesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "references",
		Short: "List the available control datasets",
		Long: `List the reference control datasets found in the configured reference
directory or bucket. The value column is what --reference expects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			defer cc.Close()

			catalog, err := cc.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := catalog.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			f := &table.Frame{Header: []string{"value", "label", "title"}}
			for _, o := range opts {
				f.Rows = append(f.Rows, []string{o.Value, o.Label, o.Title})
			}
			return export.WriteFrame(cmd.OutOrStdout(), f, cc.Cfg.Output, "references")
		},
	}
}

func completeReferences(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cc := NewCommandContext(cmd)
	defer cc.Close()

	catalog, err := cc.Catalog(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	opts, err := catalog.Refresh(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	values := make([]string, len(opts))
	for i, o := range opts {
		values[i] = o.Value
	}
	return values, cobra.ShellCompDirectiveNoFileComp
}
