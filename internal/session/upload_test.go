package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

type fakeReferences map[string]*reference.Dataset

func (f fakeReferences) Load(_ context.Context, name string) (*reference.Dataset, error) {
	ds, ok := f[name]
	if !ok {
		return nil, reference.ErrUnknownOption
	}
	return ds, nil
}

type strippingReferences struct {
	fakeReferences
}

func (strippingReferences) StripsVersions() bool { return true }

func frame(t *testing.T, csv string) *table.Frame {
	t.Helper()
	f, err := table.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func TestNewUpload(t *testing.T) {
	expr := frame(t, "sample,A,B,C\ns1,1,2,3\ns2,4,5,6\n")
	meta := frame(t, "sample,condition\ns1,1\ns2,0\n")
	net := frame(t, "tf,target\nA,B\n")

	refs := fakeReferences{
		"gene_tpm_lung.gct": {
			IDs:     []core.GeneID{"B", "A"},
			Samples: []string{"c1"},
			Values:  [][]float64{{20}, {10}},
		},
		"gene_tpm_disjoint.gct": {
			IDs:     []core.GeneID{"Z"},
			Samples: []string{"c1"},
			Values:  [][]float64{{1}},
		},
	}
	ctx := context.Background()

	t.Run("without reference", func(t *testing.T) {
		up, err := NewUpload(ctx, expr, meta, net, refs, "")
		require.NoError(t, err)
		assert.Nil(t, up.Inputs.Control)
		assert.Empty(t, up.Missing)
		assert.Equal(t, []core.GeneID{"A", "B", "C"}, up.Inputs.Expression.Genes)
		assert.Equal(t, []string{"condition"}, up.Summary.Conditions)
	})

	t.Run("with reference", func(t *testing.T) {
		up, err := NewUpload(ctx, expr, meta, net, refs, "gene_tpm_lung.gct")
		require.NoError(t, err)
		assert.Equal(t, "gene_tpm_lung.gct", up.Reference)
		assert.Equal(t, []core.GeneID{"C"}, up.Missing)
		assert.Equal(t, []core.GeneID{"A", "B"}, up.Inputs.Expression.Genes)
		assert.Equal(t, [][]float64{{10, 20}}, up.Inputs.Control.Values)
	})

	tests := []struct {
		name    string
		meta    *table.Frame
		ref     string
		wantErr error
	}{
		{name: "invalid upload", meta: frame(t, "sample,condition\ns1,1\ns3,0\n"), wantErr: core.ErrInputValidation},
		{name: "unknown reference", meta: meta, ref: "gene_tpm_nope.gct", wantErr: reference.ErrUnknownOption},
		{name: "unusable reference", meta: meta, ref: "gene_tpm_disjoint.gct", wantErr: core.ErrUnusableReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUpload(ctx, expr, tt.meta, net, refs, tt.ref)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewUpload_StripsQueryVersions(t *testing.T) {
	expr := frame(t, "sample,A.1,B.2,A.3\ns1,1,2,3\ns2,4,5,6\n")
	meta := frame(t, "sample,condition\ns1,1\ns2,0\n")
	net := frame(t, "tf,target\nA.1,B.2\n")
	ds := &reference.Dataset{
		IDs:     []core.GeneID{"A", "B"},
		Samples: []string{"c1"},
		Values:  [][]float64{{10}, {20}},
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		refs      ReferenceLoader
		wantGenes []core.GeneID
		wantEdge  core.EdgeKey
		wantErr   error
	}{
		{
			name:      "stripping loader",
			refs:      strippingReferences{fakeReferences{"gene_tpm_lung.gct": ds}},
			wantGenes: []core.GeneID{"A", "B"},
			wantEdge:  core.EdgeKey{Regulator: "A", Target: "B"},
		},
		{
			name:    "verbatim loader",
			refs:    fakeReferences{"gene_tpm_lung.gct": ds},
			wantErr: core.ErrUnusableReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := NewUpload(ctx, expr, meta, net, tt.refs, "gene_tpm_lung.gct")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGenes, up.Inputs.Expression.Genes)
			assert.Equal(t, [][]float64{{1, 2}, {4, 5}}, up.Inputs.Expression.Values)
			assert.Equal(t, []core.EdgeKey{tt.wantEdge}, up.Inputs.Network.Edges)
			assert.Empty(t, up.Missing)
		})
	}
}
