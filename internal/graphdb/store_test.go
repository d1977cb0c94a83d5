package graphdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

type call struct {
	cypher string
	params map[string]any
}

// fakeQuerier answers by the first registered substring found in the query.
type fakeQuerier struct {
	answers map[string][]Row
	err     error
	block   bool
	calls   []call
}

func (f *fakeQuerier) Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	f.calls = append(f.calls, call{cypher: cypher, params: params})
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	for k, rows := range f.answers {
		if strings.Contains(cypher, k) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeQuerier) Close(context.Context) error { return nil }

func TestValidateCohort(t *testing.T) {
	tests := []struct {
		name    string
		cohort  string
		wantErr bool
	}{
		{name: "plain", cohort: "BRCA"},
		{name: "underscore", cohort: "TCGA_LUAD"},
		{name: "empty", cohort: "", wantErr: true},
		{name: "injection", cohort: "BRCA) DETACH DELETE (n", wantErr: true},
		{name: "label separator", cohort: "BRCA:Gene", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCohort(tt.cohort)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInputValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStore_Sources(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]Row{
		"-[:REGULATED]->(center)": {
			{"source": "A", "target": "B", "regulation_id": "A:B", "fraction": 0.25, "mean": -0.3},
			{"source": "C", "target": "B", "regulation_id": nil, "fraction": int64(1), "mean": 0.0},
		},
	}}
	s := NewStore(Config{Querier: q})

	regs, err := s.Sources(context.Background(), "BRCA", "B")
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, Regulation{ID: "A:B", Key: core.EdgeKey{Regulator: "A", Target: "B"}, Fraction: 0.25, Mean: -0.3}, regs[0])
	assert.Equal(t, "C:B", regs[1].ID, "missing ids fall back to the edge id")
	assert.Equal(t, 1.0, regs[1].Fraction)

	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].cypher, "center:BRCA_Gene {gene_id: $gene}")
	assert.Contains(t, q.calls[0].cypher, "r:BRCA_Regulation")
	assert.Equal(t, "B", q.calls[0].params["gene"])
}

func TestStore_Targets(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]Row{
		"(center)-[:REGULATES]->": {{"source": "B", "target": "C", "regulation_id": "B:C", "fraction": 0.5, "mean": 0.1}},
	}}
	s := NewStore(Config{Querier: q})

	regs, err := s.Targets(context.Background(), "BRCA", "B")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, core.EdgeKey{Regulator: "B", Target: "C"}, regs[0].Key)
}

func TestStore_PatientDysregulationUppercasesPatient(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]Row{
		"DYSREGULATED": {{"regulation_id": "A:B", "patient_id": "TCGA-01", "value": 0.7}},
	}}
	s := NewStore(Config{Querier: q})

	rows, err := s.PatientDysregulation(context.Background(), "BRCA", []string{"A:B"}, "tcga-01")
	require.NoError(t, err)
	assert.Equal(t, []DysregulationRow{{RegulationID: "A:B", PatientID: "TCGA-01", Value: 0.7}}, rows)
	assert.Equal(t, "TCGA-01", q.calls[0].params["patient"])
	assert.Equal(t, []string{"A:B"}, q.calls[0].params["ids"])
}

func TestStore_Lookups(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]Row{
		"c:Cancer":                     {{"id": "BRCA"}, {"id": "LUAD"}},
		"n:LUAD_Gene":                  {{"id": "TP53"}, {"id": nil}},
		"RETURN DISTINCT p.patient_id": {{"id": "P1"}},
		"IN $ids RETURN":               {{"id": "A:B", "fraction": 0.5}},
		"METHYLATED":                   {{"gene_id": "TP53", "patient_id": "P1", "methylation": 0.9}},
	}}
	s := NewStore(Config{Querier: q})
	ctx := context.Background()

	cohorts, err := s.CohortIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BRCA", "LUAD"}, cohorts)

	genes, err := s.GeneIDs(ctx, "LUAD")
	require.NoError(t, err)
	assert.Equal(t, []core.GeneID{"TP53"}, genes)

	patients, err := s.PatientIDs(ctx, "LUAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, patients)

	fr, err := s.Fractions(ctx, "LUAD", []string{"A:B", "X:Y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A:B": 0.5}, fr)

	meth, err := s.Methylation(ctx, "LUAD", []core.GeneID{"TP53"})
	require.NoError(t, err)
	assert.Equal(t, []MethylationRow{{GeneID: "TP53", PatientID: "P1", Methylation: 0.9}}, meth)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid cohort never reaches the database", func(t *testing.T) {
		q := &fakeQuerier{}
		s := NewStore(Config{Querier: q})
		_, err := s.GeneIDs(ctx, "x; DROP")
		assert.ErrorIs(t, err, core.ErrInputValidation)
		assert.Empty(t, q.calls)
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		s := NewStore(Config{Querier: &fakeQuerier{block: true}, Timeout: 10 * time.Millisecond})
		_, err := s.Sources(ctx, "BRCA", "B")
		assert.ErrorIs(t, err, core.ErrServiceUnavailable)
	})

	t.Run("query error is not unavailable", func(t *testing.T) {
		s := NewStore(Config{Querier: &fakeQuerier{err: errors.New("syntax error")}})
		_, err := s.CohortIDs(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, core.ErrServiceUnavailable))
	})
}
