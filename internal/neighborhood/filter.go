package neighborhood

import (
	"sort"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// FilterOptions select the displayed part of a graph.
type FilterOptions struct {
	// MinFraction drops edges below this fraction.
	MinFraction float64
	// MaxRegulations keeps at most this many edges per bucket, highest
	// fraction first. Zero means no limit.
	MaxRegulations int
}

// Filter returns a copy of graph restricted by opts. Centers are always kept;
// other nodes only while an edge still reaches them. Totals are unchanged.
func Filter(graph *core.NeighborhoodGraph, opts FilterOptions) *core.NeighborhoodGraph {
	out := core.NewNeighborhoodGraph(graph.Center)
	out.TotalSources = graph.TotalSources
	out.TotalTargets = graph.TotalTargets

	var kept []core.GraphEdge
	for _, bucket := range []core.Bucket{core.BucketSources, core.BucketTargets} {
		var edges []core.GraphEdge
		for _, e := range graph.Edges {
			if e.Bucket == bucket && e.Fraction >= opts.MinFraction {
				edges = append(edges, e)
			}
		}
		if opts.MaxRegulations > 0 && len(edges) > opts.MaxRegulations {
			sort.SliceStable(edges, func(i, j int) bool {
				if edges[i].Fraction != edges[j].Fraction {
					return edges[i].Fraction > edges[j].Fraction
				}
				return edges[i].ID < edges[j].ID
			})
			edges = edges[:opts.MaxRegulations]
			sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
		}
		kept = append(kept, edges...)
	}

	out.Edges = kept
	for _, e := range kept {
		for _, id := range []core.GeneID{e.Key.Regulator, e.Key.Target} {
			if n, ok := graph.Nodes[id]; ok {
				if _, have := out.Nodes[id]; !have {
					out.Nodes[id] = n
				}
			}
		}
	}
	out.PatientOverlay = restrict(graph.PatientOverlay, kept)
	out.Compare = restrict(graph.Compare, kept)
	return out
}

func restrict(m map[string]float64, edges []core.GraphEdge) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64)
	for _, e := range edges {
		if v, ok := m[e.ID]; ok {
			out[e.ID] = v
		}
	}
	return out
}
