package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Files exchanged with a process model inside its working directory.
const (
	ExpressionFile = "expression.csv"
	MetaFile       = "meta.csv"
	NetworkFile    = "network.csv"
	ParamsFile     = "params.json"
	ResultFile     = "result.csv"
)

// WorkdirPlaceholder in an argument is replaced by the run's working directory.
const WorkdirPlaceholder = "{workdir}"

const stderrTail = 20

// ProcessModel runs the model as an external command. Inputs are written as
// CSV files and the parameters as JSON into a fresh working directory; the
// command reports progress on stderr and writes result.csv.
type ProcessModel struct {
	Command string
	Args    []string
	// TempDir is the parent of per-run working directories; empty means os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// NewProcessModel creates a ProcessModel.
func NewProcessModel(command string, args []string, logger *slog.Logger) *ProcessModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProcessModel{Command: command, Args: args, Logger: logger}
}

// Fit implements Model.
func (m *ProcessModel) Fit(ctx context.Context, in Inputs, params core.Parameters, progress ProgressFunc) (*RawResult, error) {
	if m.Command == "" {
		return nil, fmt.Errorf("no model command configured")
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dir, err := os.MkdirTemp(m.TempDir, "dysregnet-run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if err := writeInputs(dir, in, params); err != nil {
		return nil, err
	}

	args := substituteArgs(m.Args, dir)
	cmd := exec.CommandContext(ctx, m.Command, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "DYSREGNET_WORKDIR="+dir)

	// Stderr goes through a pipe we own so WaitDelay can cut off
	// descendants that keep the stream open after a kill.
	pr, pw := io.Pipe()
	cmd.Stderr = pw
	cmd.WaitDelay = 2 * time.Second

	logger.Debug("starting model process", "command", m.Command, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start model: %w", err)
	}

	var (
		tail    []string
		scanErr error
		done    = make(chan struct{})
	)
	parser := NewProgressParser(len(in.Network.Edges))
	go func() {
		defer close(done)
		scanErr = parser.Consume(pr, progress, func(line string) {
			tail = append(tail, line)
			if len(tail) > stderrTail {
				tail = tail[1:]
			}
		})
		_, _ = io.Copy(io.Discard, pr)
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	<-done

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		return nil, fmt.Errorf("model process failed: %w: %s", waitErr, strings.Join(tail, "\n"))
	}
	if scanErr != nil {
		logger.Warn("model progress stream ended early", "error", scanErr)
	}

	return readResult(filepath.Join(dir, ResultFile))
}

func substituteArgs(args []string, dir string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, a := range args {
		if strings.Contains(a, WorkdirPlaceholder) {
			replaced = true
			a = strings.ReplaceAll(a, WorkdirPlaceholder, dir)
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, dir)
	}
	return out
}

func writeInputs(dir string, in Inputs, params core.Parameters) error {
	frames := map[string]*table.Frame{
		ExpressionFile: table.FromExpression(in.Expression, "sample"),
		MetaFile:       table.FromMetadata(in.Meta, "sample"),
		NetworkFile:    table.FromNetwork(in.Network),
	}
	for name, f := range frames {
		if err := writeFrame(filepath.Join(dir, name), f); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ParamsFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write parameters: %w", err)
	}
	return nil
}

func writeFrame(path string, f *table.Frame) (err error) {
	out, err := os.Create(path) //nolint:gosec // path is inside our own temp dir
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return table.WriteCSV(out, f)
}

func readResult(path string) (*RawResult, error) {
	in, err := os.Open(path) //nolint:gosec // path is inside our own temp dir
	if err != nil {
		return nil, fmt.Errorf("model wrote no result: %w", err)
	}
	defer func() { _ = in.Close() }()

	f, err := table.ReadCSV(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read model result: %w", err)
	}
	m, err := f.ToExpression()
	if err != nil {
		return nil, fmt.Errorf("failed to parse model result: %w", err)
	}
	return &RawResult{Samples: m.Samples, Columns: m.Genes, Values: m.Values}, nil
}
