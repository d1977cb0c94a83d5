package neighborhood

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/testutil"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

func edge(reg, tgt string) core.EdgeKey { return core.EdgeKey{Regulator: reg, Target: tgt} }

func scenarioResult() *core.Result {
	return &core.Result{
		Samples: []string{"s1"},
		Edges:   []core.EdgeKey{edge("A", "B"), edge("B", "C")},
		Values:  [][]float64{{0.4, -0.1}},
	}
}

func TestAssemble_Scenario(t *testing.T) {
	a := NewAssembler(Config{Logger: testutil.NewTestLogger(t)})

	g, err := a.Assemble(context.Background(), []core.GeneID{"B"}, NewTableSource(scenarioResult()), Options{})
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, core.RoleCenter, g.Nodes["B"].Role)
	assert.Equal(t, core.RoleSource, g.Nodes["A"].Role)
	assert.Equal(t, core.RoleTarget, g.Nodes["C"].Role)

	ab, ok := g.EdgeByID("A:B")
	require.True(t, ok)
	assert.Equal(t, 1.0, ab.Fraction)
	assert.Equal(t, 12.0, ab.Weight)
	assert.Equal(t, core.Activation, ab.Class)
	assert.Equal(t, core.BucketSources, ab.Bucket)

	bc, ok := g.EdgeByID("B:C")
	require.True(t, ok)
	assert.Equal(t, 1.0, bc.Fraction)
	assert.Equal(t, 12.0, bc.Weight)
	assert.Equal(t, core.Repression, bc.Class)
	assert.Equal(t, core.BucketTargets, bc.Bucket)

	assert.Equal(t, 1, g.TotalSources)
	assert.Equal(t, 1, g.TotalTargets)
}

func TestAssemble_Statistics(t *testing.T) {
	res := &core.Result{
		Samples: []string{"s1", "s2", "s3", "s4"},
		Edges:   []core.EdgeKey{edge("A", "X"), edge("X", "B"), edge("X", "C")},
		Values: [][]float64{
			{0, 1, 0},
			{0, -1, 0.5},
			{0, 0, 0},
			{0, 0, 0},
		},
	}
	a := NewAssembler(Config{})

	g, err := a.Assemble(context.Background(), []core.GeneID{"X"}, NewTableSource(res), Options{})
	require.NoError(t, err)

	tests := []struct {
		id       string
		fraction float64
		class    core.DirectionClass
	}{
		{id: "A:X", fraction: 0, class: core.Activation},
		{id: "X:B", fraction: 0.5, class: core.Activation}, // mean exactly zero
		{id: "X:C", fraction: 0.25, class: core.Activation},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, ok := g.EdgeByID(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.fraction, e.Fraction)
			assert.Equal(t, tt.fraction*10+2, e.Weight)
			assert.Equal(t, tt.class, e.Class)
		})
	}
}

func TestAssemble_SourceSideWins(t *testing.T) {
	// D both regulates center B and is regulated by center A.
	res := &core.Result{
		Samples: []string{"s1"},
		Edges:   []core.EdgeKey{edge("D", "B"), edge("A", "D"), edge("A", "E"), edge("A", "B")},
		Values:  [][]float64{{1, 1, 1, 1}},
	}
	a := NewAssembler(Config{})

	g, err := a.Assemble(context.Background(), []core.GeneID{"A", "B"}, NewTableSource(res), Options{})
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 4)
	assert.Equal(t, core.RoleSource, g.Nodes["D"].Role)
	assert.Equal(t, core.RoleTarget, g.Nodes["E"].Role)

	_, ok := g.EdgeByID("A:D")
	assert.False(t, ok, "target edge to a source-side neighbor is dropped")

	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"A:B", "D:B", "A:E"}, ids, "sources bucket first, each sorted by id")
	assert.Equal(t, 2, g.TotalSources)
	assert.Equal(t, 1, g.TotalTargets)
}

func TestAssemble_Idempotent(t *testing.T) {
	res := &core.Result{
		Samples: []string{"s1", "s2"},
		Edges:   []core.EdgeKey{edge("A", "B"), edge("B", "C"), edge("C", "A"), edge("C", "D"), edge("E", "C")},
		Values:  [][]float64{{1, 0, -2, 0, 3}, {0, 1, 0, 0, 0}},
	}
	a := NewAssembler(Config{MaxConcurrency: 2})
	src := NewTableSource(res)

	first, err := a.Assemble(context.Background(), []core.GeneID{"C", "A", "B"}, src, Options{})
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), []core.GeneID{"B", "C", "A", "A"}, src, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Edges, second.Edges)
}

func TestAssemble_UnknownCenter(t *testing.T) {
	a := NewAssembler(Config{})

	g, err := a.Assemble(context.Background(), []core.GeneID{"NOPE", "B"}, NewTableSource(scenarioResult()), Options{})
	require.NoError(t, err)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, core.RoleCenter, g.Nodes["NOPE"].Role)

	g, err = a.Assemble(context.Background(), []core.GeneID{"NOPE"}, NewTableSource(scenarioResult()), Options{})
	require.NoError(t, err)
	assert.Empty(t, g.Edges)
}

func TestAssemble_PatientOverlay(t *testing.T) {
	res := &core.Result{
		Samples: []string{"s1", "s2"},
		Edges:   []core.EdgeKey{edge("A", "B"), edge("B", "C"), edge("X", "Y")},
		Values:  [][]float64{{0.4, 0, 9}, {0, 0, 0}},
	}
	a := NewAssembler(Config{})
	src := NewTableSource(res)

	g, err := a.Assemble(context.Background(), []core.GeneID{"B"}, src, Options{Patient: "s1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A:B": 0.4}, g.PatientOverlay, "zero values and unrelated edges are absent")

	_, err = a.Assemble(context.Background(), []core.GeneID{"B"}, src, Options{Patient: "ghost"})
	assert.ErrorIs(t, err, core.ErrInputValidation)
}

func TestAssemble_CompareNeedsComparer(t *testing.T) {
	a := NewAssembler(Config{})
	_, err := a.Assemble(context.Background(), []core.GeneID{"B"}, NewTableSource(scenarioResult()), Options{CompareCohort: "LUAD"})
	assert.ErrorIs(t, err, core.ErrInputValidation)
}

type failingSource struct {
	*TableSource
	calls atomic.Int32
}

func (f *failingSource) Targets(ctx context.Context, center core.GeneID) ([]EdgeStat, error) {
	f.calls.Add(1)
	if center == "C" {
		return nil, core.ErrServiceUnavailable
	}
	return f.TableSource.Targets(ctx, center)
}

func TestAssemble_SourceError(t *testing.T) {
	a := NewAssembler(Config{MaxConcurrency: 1})
	src := &failingSource{TableSource: NewTableSource(scenarioResult())}

	g, err := a.Assemble(context.Background(), []core.GeneID{"A", "B", "C"}, src, Options{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)
	assert.Positive(t, src.calls.Load())
}

// cohortQuerier serves a tiny two-cohort graph.
type cohortQuerier struct{}

func (cohortQuerier) Query(_ context.Context, cypher string, params map[string]any) ([]graphdb.Row, error) {
	switch {
	case strings.Contains(cypher, "-[:REGULATED]->(center)") && params["gene"] == "B":
		return []graphdb.Row{{"source": "A", "target": "B", "regulation_id": "A:B", "fraction": 0.5, "mean": 0.2}}, nil
	case strings.Contains(cypher, "(center)-[:REGULATES]->") && params["gene"] == "B":
		return []graphdb.Row{{"source": "B", "target": "C", "regulation_id": "B:C", "fraction": 0.25, "mean": -0.4}}, nil
	case strings.Contains(cypher, "p.patient_id = $patient"):
		return []graphdb.Row{
			{"regulation_id": "B:C", "patient_id": "TCGA-1", "value": -1.5},
			{"regulation_id": "A:B", "patient_id": "TCGA-1", "value": 0.0},
		}, nil
	case strings.Contains(cypher, "LUAD_Regulation") && strings.Contains(cypher, "r.fraction AS fraction"):
		return []graphdb.Row{{"id": "A:B", "fraction": 0.75}}, nil
	}
	return nil, nil
}

func (cohortQuerier) Close(context.Context) error { return nil }

func TestAssemble_GraphSource(t *testing.T) {
	store := graphdb.NewStore(graphdb.Config{Querier: cohortQuerier{}})
	src, err := NewGraphSource(store, "BRCA")
	require.NoError(t, err)

	a := NewAssembler(Config{})
	g, err := a.Assemble(context.Background(), []core.GeneID{"B", "UNKNOWN"}, src, Options{Patient: "tcga-1", CompareCohort: "LUAD"})
	require.NoError(t, err)

	ab, ok := g.EdgeByID("A:B")
	require.True(t, ok)
	assert.Equal(t, 7.0, ab.Weight)
	assert.Equal(t, core.Activation, ab.Class)

	bc, ok := g.EdgeByID("B:C")
	require.True(t, ok)
	assert.Equal(t, core.Repression, bc.Class)

	assert.Equal(t, map[string]float64{"B:C": -1.5}, g.PatientOverlay)
	assert.Equal(t, map[string]float64{"A:B": 0.75}, g.Compare)

	_, err = NewGraphSource(store, "BRCA;")
	assert.ErrorIs(t, err, core.ErrInputValidation)
}

func TestUpdate(t *testing.T) {
	a := NewAssembler(Config{})
	src := NewTableSource(scenarioResult())
	ctx := context.Background()

	view, outcome, err := a.Update(ctx, nil, Query{Centers: []core.GeneID{"B"}, Dataset: "s"}, src)
	require.NoError(t, err)
	assert.Equal(t, core.Updated, outcome)

	tests := []struct {
		name string
		q    Query
		want core.Outcome
	}{
		{name: "same centers", q: Query{Centers: []core.GeneID{"B"}, Dataset: "s"}, want: core.NoChange},
		{name: "repeated center", q: Query{Centers: []core.GeneID{"B", "B"}, Dataset: "s"}, want: core.NoChange},
		{name: "no centers", q: Query{Dataset: "s"}, want: core.NoChange},
		{name: "no centers, other dataset", q: Query{Dataset: "t"}, want: core.Updated},
		{name: "added center", q: Query{Centers: []core.GeneID{"B", "A"}, Dataset: "s"}, want: core.Updated},
		{name: "other dataset", q: Query{Centers: []core.GeneID{"B"}, Dataset: "t"}, want: core.Updated},
		{name: "patient selected", q: Query{Centers: []core.GeneID{"B"}, Dataset: "s", Options: Options{Patient: "s1"}}, want: core.Updated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, got, err := a.Update(ctx, view, tt.q, src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if got == core.NoChange {
				assert.Same(t, view, next)
			}
			if len(tt.q.Centers) == 0 && got == core.Updated {
				assert.Equal(t, tt.q.Dataset, next.Query.Dataset)
				assert.Empty(t, next.Graph.Edges)
				assert.Empty(t, next.Graph.Nodes)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	res := &core.Result{
		Samples: []string{"s1", "s2", "s3", "s4"},
		Edges:   []core.EdgeKey{edge("A", "X"), edge("B", "X"), edge("X", "C"), edge("X", "D")},
		Values: [][]float64{
			{1, 1, 1, 1},
			{1, 1, 0, 1},
			{1, 0, 0, 0},
			{0, 0, 0, 0},
		},
	}
	a := NewAssembler(Config{})
	g, err := a.Assemble(context.Background(), []core.GeneID{"X"}, NewTableSource(res), Options{Patient: "s1"})
	require.NoError(t, err)
	require.Len(t, g.Edges, 4)

	tests := []struct {
		name      string
		opts      FilterOptions
		wantEdges []string
		wantNodes int
	}{
		{name: "no filter", opts: FilterOptions{}, wantEdges: []string{"A:X", "B:X", "X:C", "X:D"}, wantNodes: 5},
		{name: "min fraction", opts: FilterOptions{MinFraction: 0.5}, wantEdges: []string{"A:X", "B:X", "X:D"}, wantNodes: 4},
		{name: "max per bucket", opts: FilterOptions{MaxRegulations: 1}, wantEdges: []string{"A:X", "X:D"}, wantNodes: 3},
		{name: "everything filtered", opts: FilterOptions{MinFraction: 1.1}, wantEdges: nil, wantNodes: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter(g, tt.opts)
			var ids []string
			for _, e := range f.Edges {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantEdges, ids)
			assert.Len(t, f.Nodes, tt.wantNodes)
			assert.Len(t, f.PatientOverlay, len(tt.wantEdges))
			assert.Equal(t, g.TotalSources, f.TotalSources)
		})
	}
}

func TestColumnStat_Empty(t *testing.T) {
	st := columnStat(edge("A", "B"), nil)
	assert.Zero(t, st.Fraction)
	assert.Zero(t, st.Mean)
}
