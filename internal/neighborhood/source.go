// Package neighborhood assembles the regulatory neighborhood of a set of
// center genes into one deduplicated graph with per-edge statistics.
//
// Edges come from an EdgeSource: either a cached dysregulation result
// (TableSource) or a cohort in the graph database (GraphSource).
package neighborhood

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// EdgeStat is one edge with the statistics the assembler derives weight and
// class from.
type EdgeStat struct {
	Key      core.EdgeKey
	ID       string
	Fraction float64
	Mean     float64
}

// EdgeSource yields the edges around a center gene. An unknown center
// yields no edges and no error.
type EdgeSource interface {
	// Sources returns edges whose target is center.
	Sources(ctx context.Context, center core.GeneID) ([]EdgeStat, error)
	// Targets returns edges whose regulator is center.
	Targets(ctx context.Context, center core.GeneID) ([]EdgeStat, error)
	// PatientValues returns the nonzero values of one sample keyed by edge id.
	PatientValues(ctx context.Context, edges []core.EdgeKey, patient string) (map[string]float64, error)
}

// Comparer is implemented by sources that can report fractions of the same
// edges in another cohort.
type Comparer interface {
	Fractions(ctx context.Context, cohort string, edgeIDs []string) (map[string]float64, error)
}

// TableSource serves edges from a dysregulation result.
type TableSource struct {
	result   *core.Result
	byTarget map[core.GeneID][]int
	byReg    map[core.GeneID][]int
	stats    []EdgeStat
}

// NewTableSource indexes result. Statistics are computed once per edge.
func NewTableSource(result *core.Result) *TableSource {
	t := &TableSource{
		result:   result,
		byTarget: make(map[core.GeneID][]int),
		byReg:    make(map[core.GeneID][]int),
		stats:    make([]EdgeStat, len(result.Edges)),
	}
	for j, e := range result.Edges {
		t.byTarget[e.Target] = append(t.byTarget[e.Target], j)
		t.byReg[e.Regulator] = append(t.byReg[e.Regulator], j)
		t.stats[j] = columnStat(e, result.Column(j))
	}
	return t
}

// columnStat computes the fraction of nonzero samples and the mean.
func columnStat(key core.EdgeKey, values []float64) EdgeStat {
	st := EdgeStat{Key: key, ID: key.ID()}
	if len(values) == 0 {
		return st
	}
	nonzero := 0
	for _, v := range values {
		if v != 0 {
			nonzero++
		}
	}
	st.Fraction = float64(nonzero) / float64(len(values))
	if mean := stat.Mean(values, nil); !math.IsNaN(mean) {
		st.Mean = mean
	}
	return st
}

func (t *TableSource) pick(idx []int) []EdgeStat {
	out := make([]EdgeStat, 0, len(idx))
	for _, j := range idx {
		out = append(out, t.stats[j])
	}
	return out
}

// Sources implements EdgeSource.
func (t *TableSource) Sources(ctx context.Context, center core.GeneID) ([]EdgeStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.pick(t.byTarget[center]), nil
}

// Targets implements EdgeSource.
func (t *TableSource) Targets(ctx context.Context, center core.GeneID) ([]EdgeStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.pick(t.byReg[center]), nil
}

// PatientValues implements EdgeSource.
func (t *TableSource) PatientValues(_ context.Context, edges []core.EdgeKey, patient string) (map[string]float64, error) {
	row := t.result.SampleIndex(patient)
	if row < 0 {
		return nil, core.NewValidationError("patient", fmt.Sprintf("unknown sample %q", patient))
	}
	col := make(map[core.EdgeKey]int, len(t.result.Edges))
	for j, e := range t.result.Edges {
		col[e] = j
	}

	out := make(map[string]float64)
	for _, e := range edges {
		j, ok := col[e]
		if !ok {
			continue
		}
		if v := t.result.Values[row][j]; v != 0 {
			out[e.ID()] = v
		}
	}
	return out, nil
}

// GraphSource serves edges of one cohort from the graph database.
type GraphSource struct {
	store  *graphdb.Store
	cohort string
}

// NewGraphSource binds store to cohort.
func NewGraphSource(store *graphdb.Store, cohort string) (*GraphSource, error) {
	if err := graphdb.ValidateCohort(cohort); err != nil {
		return nil, err
	}
	return &GraphSource{store: store, cohort: cohort}, nil
}

// Cohort returns the bound cohort id.
func (g *GraphSource) Cohort() string { return g.cohort }

// Sources implements EdgeSource.
func (g *GraphSource) Sources(ctx context.Context, center core.GeneID) ([]EdgeStat, error) {
	regs, err := g.store.Sources(ctx, g.cohort, center)
	if err != nil {
		return nil, err
	}
	return fromRegulations(regs), nil
}

// Targets implements EdgeSource.
func (g *GraphSource) Targets(ctx context.Context, center core.GeneID) ([]EdgeStat, error) {
	regs, err := g.store.Targets(ctx, g.cohort, center)
	if err != nil {
		return nil, err
	}
	return fromRegulations(regs), nil
}

// PatientValues implements EdgeSource.
func (g *GraphSource) PatientValues(ctx context.Context, edges []core.EdgeKey, patient string) (map[string]float64, error) {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID()
	}
	rows, err := g.store.PatientDysregulation(ctx, g.cohort, ids, patient)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		if r.Value != 0 {
			out[r.RegulationID] = r.Value
		}
	}
	return out, nil
}

// Fractions implements Comparer.
func (g *GraphSource) Fractions(ctx context.Context, cohort string, edgeIDs []string) (map[string]float64, error) {
	return g.store.Fractions(ctx, cohort, edgeIDs)
}

func fromRegulations(regs []graphdb.Regulation) []EdgeStat {
	out := make([]EdgeStat, 0, len(regs))
	for _, r := range regs {
		out = append(out, EdgeStat{Key: r.Key, ID: r.Key.ID(), Fraction: r.Fraction, Mean: r.Mean})
	}
	return out
}
