package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	intconfig "github.com/dysregnet/dysregnet-explorer/internal/config"
	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DysRegNet Explorer web server",
		Long: `Start the HTTP server behind the explorer.

The server provides:
- Upload and validation of expression, meta and network files
- Background dysregulation runs with streamed progress
- Neighborhood graphs and exports for finished sessions
- Precomputed cancer cohorts from the graph database
- Prometheus metrics on /metrics`,
		Example: `  # Start on the default port
  dysregnet serve

  # Start on a custom port without watching the reference directory
  dysregnet serve --port 3000 --watch=false`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", intconfig.DefaultPort, "Port to serve on")
	cmd.Flags().Bool("watch", true, "Refresh reference options when the reference directory changes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	defer cc.Close()
	cfg := cc.Cfg

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cc.Metrics = observability.NewMetrics(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resultCache, err := cc.Cache()
	if err != nil {
		return err
	}
	catalog, err := cc.Catalog(ctx)
	if err != nil {
		return err
	}
	loader, err := cc.Loader(ctx)
	if err != nil {
		return err
	}
	graph, err := cc.Graph()
	if err != nil {
		return err
	}
	if graph == nil {
		cc.Logger.Warn("no graph database configured; cohort routes will answer 503")
	}
	if cfg.Model.Command == "" {
		cc.Logger.Warn("no model command configured; runs will fail")
	}

	watchDir := ""
	if cfg.Reference.Watch && cfg.Reference.Driver == intconfig.ReferenceFS {
		watchDir = cfg.Reference.Dir
	}

	server := ui.NewServer(ui.Config{
		Catalog:       catalog,
		Loader:        loader,
		Runner:        cc.Runner(),
		Cache:         resultCache,
		Graph:         graph,
		Assembler:     cc.Assembler(),
		Gatherer:      reg,
		Port:          cfg.Server.Port,
		WatchDir:      watchDir,
		SessionSecret: cfg.Server.SessionSecret,
		Logger:        cc.Logger,
	})

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting DysRegNet Explorer on http://localhost:%d\n", cfg.Server.Port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.Serve(ctx)
}
