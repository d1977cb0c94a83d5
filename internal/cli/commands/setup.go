package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/cache"
	"github.com/dysregnet/dysregnet-explorer/internal/cli/config"
	intconfig "github.com/dysregnet/dysregnet-explorer/internal/config"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/kv"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
)

// CommandContext holds common dependencies for CLI commands. Backing
// services are opened on first use and released by Close.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	closers []func() error
}

// NewCommandContext creates a CommandContext from the loaded config, or the
// defaults when the root command did not load one.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg, ok := config.GetConfig(cmd.Context())
	if !ok {
		cfg = defaultConfig()
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
	}
}

func defaultConfig() *config.Config {
	cfg, _, err := config.Load("", nil)
	if err != nil {
		return &config.Config{}
	}
	return cfg
}

// Close releases every service opened through the context, newest first.
func (c *CommandContext) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("failed to close resource", "error", err)
		}
	}
	c.closers = nil
}

func (c *CommandContext) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Cache opens the configured key-value store and wraps it in a ResultCache.
func (c *CommandContext) Cache() (*cache.ResultCache, error) {
	path := c.Cfg.Cache.Path
	if c.Cfg.Cache.Driver != kv.DriverMemory && path != "" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
	}

	store, err := kv.Open(kv.Config{Driver: c.Cfg.Cache.Driver, Path: path, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	c.onClose(store.Close)

	return cache.New(cache.Config{
		Store:     store,
		Namespace: c.Cfg.Cache.Namespace,
		Timeout:   c.Cfg.Cache.Timeout,
		Logger:    c.Logger,
		Metrics:   c.Metrics,
	}), nil
}

// Catalog builds the reference catalog over the configured source.
func (c *CommandContext) Catalog(ctx context.Context) (*reference.Catalog, error) {
	var src reference.Source
	switch c.Cfg.Reference.Driver {
	case intconfig.ReferenceS3:
		s3cfg := c.Cfg.Reference.S3
		s, err := reference.NewS3Source(ctx, reference.S3Config{
			Bucket:    s3cfg.Bucket,
			Prefix:    s3cfg.Prefix,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			PathStyle: s3cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		src = s
	default:
		src = reference.NewDirSource(c.Cfg.Reference.Dir)
	}

	return reference.NewCatalog(reference.CatalogConfig{
		Source:        src,
		StripVersions: c.Cfg.Reference.StripVersions,
		Logger:        c.Logger,
	}), nil
}

// Loader returns the table loader for the configured import engine.
func (c *CommandContext) Loader(ctx context.Context) (*table.Loader, error) {
	if c.Cfg.Import.Engine != intconfig.EngineDuckDB {
		return table.NewLoader(nil), nil
	}
	duck, err := table.OpenDuckDB(ctx)
	if err != nil {
		return nil, err
	}
	c.onClose(duck.Close)
	return table.NewLoader(duck), nil
}

// Runner returns an analysis runner around the configured model command.
func (c *CommandContext) Runner() *analysis.Runner {
	model := analysis.NewProcessModel(c.Cfg.Model.Command, c.Cfg.Model.Args, c.Logger)
	return analysis.NewRunner(analysis.Config{Model: model, Logger: c.Logger, Metrics: c.Metrics})
}

// errNoGraph is returned when no graph database URI is configured.
var errNoGraph = errors.New("no graph database configured (set graphdb.uri)")

// Graph connects the cohort graph store. It returns nil without error when
// graphdb.uri is empty.
func (c *CommandContext) Graph() (*graphdb.Store, error) {
	g := c.Cfg.GraphDB
	if g.URI == "" {
		return nil, nil
	}
	q, err := graphdb.NewNeo4jQuerier(graphdb.ConnConfig{URI: g.URI, User: g.User, Password: g.Password})
	if err != nil {
		return nil, fmt.Errorf("failed to create graph database driver: %w", err)
	}
	store := graphdb.NewStore(graphdb.Config{Querier: q, Timeout: g.Timeout, Logger: c.Logger, Metrics: c.Metrics})
	c.onClose(func() error { return store.Close(context.Background()) })
	return store, nil
}

// RequireGraph is Graph for commands that cannot run without it.
func (c *CommandContext) RequireGraph() (*graphdb.Store, error) {
	store, err := c.Graph()
	if err == nil && store == nil {
		err = errNoGraph
	}
	return store, err
}

// Assembler returns a neighborhood assembler bounded by graphdb.max_concurrency.
func (c *CommandContext) Assembler() *neighborhood.Assembler {
	return neighborhood.NewAssembler(neighborhood.Config{
		MaxConcurrency: c.Cfg.GraphDB.MaxConcurrency,
		Logger:         c.Logger,
		Metrics:        c.Metrics,
	})
}
