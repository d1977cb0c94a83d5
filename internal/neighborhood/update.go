package neighborhood

import (
	"context"
	"slices"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Query identifies one neighborhood view.
type Query struct {
	Centers []core.GeneID
	// Dataset names where the edges come from: a cohort id or a session id.
	Dataset string
	Options
}

// View is an assembled graph together with the query that produced it.
type View struct {
	Query Query
	Graph *core.NeighborhoodGraph
}

// Update assembles q unless prev already answers it. The center comparison
// ignores order and repeats. An empty center list keeps prev while the
// dataset is unchanged; against another dataset it yields an empty graph.
func (a *Assembler) Update(ctx context.Context, prev *View, q Query, src EdgeSource) (*View, core.Outcome, error) {
	if prev != nil && ((len(q.Centers) == 0 && prev.Query.Dataset == q.Dataset) || sameQuery(prev.Query, q)) {
		return prev, core.NoChange, nil
	}
	graph, err := a.Assemble(ctx, q.Centers, src, q.Options)
	if err != nil {
		return nil, core.NoChange, err
	}
	return &View{Query: q, Graph: graph}, core.Updated, nil
}

func sameQuery(a, b Query) bool {
	return a.Dataset == b.Dataset && a.Options == b.Options && sameGeneSet(a.Centers, b.Centers)
}

func sameGeneSet(a, b []core.GeneID) bool {
	ua, ub := uniqueGenes(a), uniqueGenes(b)
	slices.Sort(ua)
	slices.Sort(ub)
	return slices.Equal(ua, ub)
}
