package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Expression string
	Meta       string
	Network    string
	Reference  string
	Session    string
	Out        string

	Params    core.Parameters
	RSquared  float64
	NoPersist bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a dysregulation analysis on local files",
		Long: `Validate an expression matrix, its meta data and a regulatory network,
fit the dysregulation model and store the result under a session id.

When --reference names a control dataset its genes are reconciled with the
expression data first and its samples join the run as controls.

The session id printed at the end can be passed to the neighborhood and
export commands.`,
		Example: `  # Run with the case/control column "condition"
  dysregnet run --expression expr.csv --meta meta.csv --network net.csv --condition condition

  # Use GTEx lung tissue as controls and write the result to a workbook
  dysregnet run --expression expr.csv --meta meta.csv --network net.csv \
    --condition condition --reference gene_tpm_lung.gct --out result.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Expression, "expression", "", "Expression matrix (csv, tsv or xlsx), samples as rows")
	f.StringVar(&opts.Meta, "meta", "", "Meta data with one row per sample")
	f.StringVar(&opts.Network, "network", "", "Regulatory network with regulator and target columns")
	f.StringVar(&opts.Reference, "reference", "", "Control dataset from the reference directory")
	f.StringVar(&opts.Session, "session", "", "Session id to store the result under (default: random)")
	f.StringVar(&opts.Out, "out", "", "Write the result to this file (.xlsx or .csv); - for stdout")
	f.BoolVar(&opts.NoPersist, "no-cache", false, "Do not store the result in the cache")

	f.StringVar(&opts.Params.Condition, "condition", "", "Binary case/control column in the meta data")
	f.StringSliceVar(&opts.Params.CategoricalCovariates, "categorical", nil, "Categorical covariate columns")
	f.StringSliceVar(&opts.Params.ContinuousCovariates, "continuous", nil, "Continuous covariate columns")
	f.BoolVar(&opts.Params.ZScore, "z-score", true, "Report z-scores instead of residual signs")
	f.Float64Var(&opts.Params.BonferroniAlpha, "bonferroni-alpha", 0, "Bonferroni corrected significance level (default from config)")
	f.BoolVar(&opts.Params.NormalityTest, "normality-test", false, "Test residuals of the control model for normality")
	f.Float64Var(&opts.Params.NormalityAlpha, "normality-alpha", 0, "Normality test significance level (default from config)")
	f.Float64Var(&opts.RSquared, "r-squared", 0, "Minimum R² of the control model; unset keeps every edge")
	f.BoolVar(&opts.Params.ConditionDirection, "condition-direction", false, "Keep only dysregulation in the direction of the condition")

	for _, name := range []string{"expression", "meta", "network", "condition"} {
		_ = cmd.MarkFlagRequired(name)
	}
	_ = cmd.RegisterFlagCompletionFunc("reference", completeReferences)

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cc := NewCommandContext(cmd)
	defer cc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := cc.Loader(ctx)
	if err != nil {
		return err
	}
	expr, err := loader.ReadFile(ctx, opts.Expression)
	if err != nil {
		return fmt.Errorf("failed to read expression data: %w", err)
	}
	meta, err := loader.ReadFile(ctx, opts.Meta)
	if err != nil {
		return fmt.Errorf("failed to read meta data: %w", err)
	}
	network, err := loader.ReadFile(ctx, opts.Network)
	if err != nil {
		return fmt.Errorf("failed to read network: %w", err)
	}

	catalog, err := cc.Catalog(ctx)
	if err != nil {
		return err
	}
	up, err := session.NewUpload(ctx, expr, meta, network, catalog, opts.Reference)
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	if len(up.Missing) > 0 {
		_, _ = fmt.Fprintf(stderr, "%d genes are missing from %s and were dropped\n", len(up.Missing), up.Reference)
	}

	params := opts.Params
	if !cmd.Flags().Changed("bonferroni-alpha") {
		params.BonferroniAlpha = cc.Cfg.Analysis.BonferroniAlpha
	}
	if !cmd.Flags().Changed("normality-alpha") {
		params.NormalityAlpha = cc.Cfg.Analysis.NormalityAlpha
	}
	if cmd.Flags().Changed("r-squared") {
		r2 := opts.RSquared
		params.RSquaredThreshold = &r2
	}
	params.Reference = up.Reference
	params = params.WithDefaults()

	sessionID := opts.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	last := -1
	result, err := cc.Runner().Run(ctx, up.Inputs, params, func(current, total int) {
		if total == 0 || current == last {
			return
		}
		last = current
		_, _ = fmt.Fprintf(stderr, "\rFitting edges %d/%d", current, total)
	})
	if last >= 0 {
		_, _ = fmt.Fprintln(stderr)
	}
	if err != nil {
		return fmt.Errorf("run failed (%s): %w", core.Kind(err), err)
	}

	if !opts.NoPersist {
		resultCache, err := cc.Cache()
		if err != nil {
			return err
		}
		if err := resultCache.Put(ctx, sessionID, result, params); err != nil {
			return err
		}
	}

	if err := writeResult(cmd, opts.Out, result); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stderr, "Run finished in %s: %d samples, %d edges\n",
		time.Since(start).Round(time.Millisecond), len(result.Samples), len(result.Edges))
	if !opts.NoPersist {
		_, _ = fmt.Fprintf(stderr, "Session: %s\n", sessionID)
	}
	return nil
}

// writeResult writes result to path, choosing the format by extension.
// An empty path writes nothing; "-" writes CSV to stdout.
func writeResult(cmd *cobra.Command, path string, result *core.Result) error {
	switch path {
	case "":
		return nil
	case "-":
		path = ""
	}
	return writeTo(cmd, path, func(w io.Writer) error {
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return export.WriteResultXLSX(w, result)
		}
		return export.WriteResultCSV(w, result)
	})
}
