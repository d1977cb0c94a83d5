// Package cli provides the command-line interface for DysRegNet Explorer.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/cli/commands"
	"github.com/dysregnet/dysregnet-explorer/internal/cli/config"
	"github.com/dysregnet/dysregnet-explorer/internal/export"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dysregnet",
		Short: "DysRegNet Explorer - patient-specific regulatory network dysregulation",
		Long: `DysRegNet Explorer finds regulatory edges that are dysregulated in
individual patients and lets you browse them as gene neighborhoods.

Run the analysis on your own expression data, or explore the precomputed
cancer cohorts stored in the graph database, from the terminal or the
web interface started by "dysregnet serve".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, used, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
			if used != "" {
				logger.Debug("using config file", "path", used)
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{.Name}} {{.Version}}
commit %s, built %s
`, GitCommit, BuildDate))

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./dysregnet.yaml or ~/.dysregnet/dysregnet.yaml)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")
	pf.StringP("output", "o", "", "Output format (table|csv|json|markdown)")
	pf.String("cache-driver", "", "Result cache backend (sqlite|badger|memory)")
	pf.String("cache-path", "", "Result cache location")
	pf.String("graphdb-uri", "", "Graph database URI (e.g. bolt://localhost:7687)")
	pf.String("reference-dir", "", "Directory holding reference control datasets")
	pf.String("import-engine", "", "Table import engine (native|duckdb)")
	pf.String("model-command", "", "Executable that fits the dysregulation model")

	_ = rootCmd.RegisterFlagCompletionFunc("output", fixedCompletion(export.FormatTable, export.FormatCSV, export.FormatJSON, export.FormatMarkdown))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", fixedCompletion("debug", "info", "warn", "error"))
	_ = rootCmd.RegisterFlagCompletionFunc("cache-driver", fixedCompletion("sqlite", "badger", "memory"))
	_ = rootCmd.RegisterFlagCompletionFunc("import-engine", fixedCompletion("native", "duckdb"))

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewReconcileCommand())
	rootCmd.AddCommand(commands.NewNeighborhoodCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewCohortsCommand())
	rootCmd.AddCommand(commands.NewReferencesCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dysregnet.

To load completions:

Bash:
  $ source <(dysregnet completion bash)

  # To load completions for each session, execute once:
  $ dysregnet completion bash > /etc/bash_completion.d/dysregnet

Zsh:
  $ dysregnet completion zsh > "${fpath[1]}/_dysregnet"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ dysregnet completion fish | source

  # To load completions for each session, execute once:
  $ dysregnet completion fish > ~/.config/fish/completions/dysregnet.fish

PowerShell:
  PS> dysregnet completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
