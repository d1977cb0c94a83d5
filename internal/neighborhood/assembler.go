package neighborhood

import (
	"context"
	"log/slog"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// DefaultMaxConcurrency bounds per-center queries.
const DefaultMaxConcurrency = 4

// Options refine one assembly.
type Options struct {
	// Patient selects a sample whose nonzero values form the overlay.
	Patient string
	// CompareCohort names a second cohort whose fractions are overlaid.
	// Only sources implementing Comparer support it.
	CompareCohort string
}

// Config configures an Assembler.
type Config struct {
	MaxConcurrency int
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

// Assembler builds neighborhood graphs.
type Assembler struct {
	maxConcurrency int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg Config) *Assembler {
	n := cfg.MaxConcurrency
	if n <= 0 {
		n = DefaultMaxConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{maxConcurrency: n, logger: logger, metrics: cfg.Metrics}
}

type centerEdges struct {
	sources []EdgeStat
	targets []EdgeStat
}

// Assemble gathers the edges around every center and merges them.
//
// Edges into a center form the sources bucket, edges out of a center the
// targets bucket. A target edge is dropped when the same edge is already a
// source edge, or when its target gene already regulates some center; in
// both cases the sources relation wins. Merging starts only after every
// center query has finished.
func (a *Assembler) Assemble(ctx context.Context, centers []core.GeneID, src EdgeSource, opts Options) (*core.NeighborhoodGraph, error) {
	centers = uniqueGenes(centers)
	graph := core.NewNeighborhoodGraph(centers)

	perCenter := make([]centerEdges, len(centers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrency)
	for i, c := range centers {
		g.Go(func() error {
			sources, err := src.Sources(gctx, c)
			if err != nil {
				return err
			}
			targets, err := src.Targets(gctx, c)
			if err != nil {
				return err
			}
			perCenter[i] = centerEdges{sources: sources, targets: targets}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merge(graph, perCenter)

	if opts.Patient != "" && len(graph.Edges) > 0 {
		keys := make([]core.EdgeKey, len(graph.Edges))
		for i, e := range graph.Edges {
			keys[i] = e.Key
		}
		values, err := src.PatientValues(ctx, keys, opts.Patient)
		if err != nil {
			return nil, err
		}
		graph.PatientOverlay = overlay(graph, values)
	}

	if opts.CompareCohort != "" {
		cmp, ok := src.(Comparer)
		if !ok {
			return nil, core.NewValidationError("compare", "comparison cohorts need a graph database source")
		}
		ids := make([]string, len(graph.Edges))
		for i, e := range graph.Edges {
			ids[i] = e.ID
		}
		fractions, err := cmp.Fractions(ctx, opts.CompareCohort, ids)
		if err != nil {
			return nil, err
		}
		graph.Compare = fractions
	}

	a.metrics.NeighborhoodAssembled(len(graph.Edges))
	a.logger.Debug("neighborhood assembled",
		"centers", len(centers),
		"sources", graph.TotalSources,
		"targets", graph.TotalTargets)
	return graph, nil
}

func merge(graph *core.NeighborhoodGraph, perCenter []centerEdges) {
	sourceEdges := make(map[string]EdgeStat)
	sourceNeighbors := make(map[core.GeneID]struct{})
	for _, pc := range perCenter {
		for _, e := range pc.sources {
			sourceEdges[e.ID] = e
			sourceNeighbors[e.Key.Regulator] = struct{}{}
		}
	}

	targetEdges := make(map[string]EdgeStat)
	for _, pc := range perCenter {
		for _, e := range pc.targets {
			if _, dup := sourceEdges[e.ID]; dup {
				continue
			}
			if _, isSource := sourceNeighbors[e.Key.Target]; isSource {
				continue
			}
			targetEdges[e.ID] = e
		}
	}

	for _, e := range sortedStats(sourceEdges) {
		graph.Edges = append(graph.Edges, toGraphEdge(e, core.BucketSources))
		addNode(graph, e.Key.Regulator, core.RoleSource)
	}
	for _, e := range sortedStats(targetEdges) {
		graph.Edges = append(graph.Edges, toGraphEdge(e, core.BucketTargets))
		addNode(graph, e.Key.Target, core.RoleTarget)
	}
	graph.TotalSources = len(sourceEdges)
	graph.TotalTargets = len(targetEdges)
}

func toGraphEdge(e EdgeStat, bucket core.Bucket) core.GraphEdge {
	return core.GraphEdge{
		Key:      e.Key,
		ID:       e.ID,
		Fraction: e.Fraction,
		Weight:   core.EdgeWeight(e.Fraction),
		Class:    core.ClassifyMean(e.Mean),
		Bucket:   bucket,
	}
}

func addNode(graph *core.NeighborhoodGraph, id core.GeneID, role core.NodeRole) {
	if _, ok := graph.Nodes[id]; ok {
		return
	}
	graph.Nodes[id] = core.Node{ID: id, Label: id, Role: role}
}

// overlay keeps nonzero values of edges with both endpoints in the graph
// and at least one endpoint a center.
func overlay(graph *core.NeighborhoodGraph, values map[string]float64) map[string]float64 {
	centers := graph.CenterSet()
	out := make(map[string]float64)
	for _, e := range graph.Edges {
		v, ok := values[e.ID]
		if !ok || v == 0 {
			continue
		}
		_, hasReg := graph.Nodes[e.Key.Regulator]
		_, hasTgt := graph.Nodes[e.Key.Target]
		if hasReg && hasTgt && e.Key.Touches(centers) {
			out[e.ID] = v
		}
	}
	return out
}

func sortedStats(m map[string]EdgeStat) []EdgeStat {
	out := make([]EdgeStat, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func uniqueGenes(ids []core.GeneID) []core.GeneID {
	out := make([]core.GeneID, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
