package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display DysRegNet Explorer version and build information.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "DysRegNet Explorer v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Patient-specific gene regulatory network dysregulation explorer")
		},
	}
}
