package cohorts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

func brcaGraph(cypher string, params map[string]any) ([]graphdb.Row, error) {
	switch {
	case strings.Contains(cypher, "MATCH (c:Cancer)"):
		return []graphdb.Row{{"id": "BRCA"}, {"id": "LUAD"}}, nil
	case strings.Contains(cypher, "MATCH (n:BRCA_Gene)"):
		return []graphdb.Row{{"id": "A"}, {"id": "B"}, {"id": "C"}}, nil
	case strings.Contains(cypher, "-[:REGULATED]->(center)") && params["gene"] == "B":
		return []graphdb.Row{{"source": "A", "target": "B", "regulation_id": "A:B", "fraction": 0.5, "mean": 0.2}}, nil
	case strings.Contains(cypher, "(center)-[:REGULATES]->") && params["gene"] == "B":
		return []graphdb.Row{{"source": "B", "target": "C", "regulation_id": "B:C", "fraction": 0.25, "mean": -0.4}}, nil
	case strings.Contains(cypher, "LUAD_Regulation") && strings.Contains(cypher, "r.fraction AS fraction"):
		return []graphdb.Row{{"id": "A:B", "fraction": 0.75}}, nil
	case strings.Contains(cypher, "METHYLATED"):
		return []graphdb.Row{{"gene_id": "B", "patient_id": "TCGA-1", "methylation": 0.3}}, nil
	case strings.Contains(cypher, "DYSREGULATED]->(r)") && strings.Contains(cypher, "d.value AS value"):
		return []graphdb.Row{{"regulation_id": "A:B", "patient_id": "TCGA-1", "value": 1.25}}, nil
	}
	return nil, nil
}

func get(t *testing.T, h http.HandlerFunc, target, cohort string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cohort != "" {
		req = features.RequestWithPathParam(req, "cohort", cohort)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlers_Lists(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithGraph(features.Querier(brcaGraph)))
	h := NewHandlers(f.Deps)

	rec := get(t, h.List, "/api/cohorts/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cohorts ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cohorts))
	assert.Equal(t, []string{"BRCA", "LUAD"}, cohorts.IDs)

	rec = get(t, h.Genes, "/api/cohorts/BRCA/genes", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code)
	var genes ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &genes))
	assert.Equal(t, []string{"A", "B", "C"}, genes.IDs)

	rec = get(t, h.Patients, "/api/cohorts/BRCA/patients", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ids":[]}`, rec.Body.String())
}

func TestHandlers_Graph(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithGraph(features.Querier(brcaGraph)))
	h := NewHandlers(f.Deps)

	rec := get(t, h.Graph, "/api/cohorts/BRCA/graph?gene=B&compare=LUAD", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.GraphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp.Outcome)
	require.NotNil(t, resp.Graph)
	assert.Len(t, resp.Graph.Edges, 2)
	assert.Len(t, resp.Graph.Nodes, 3)
	assert.Equal(t, map[string]float64{"A:B": 0.75}, resp.Graph.Compare)

	ab, ok := resp.Graph.EdgeByID("A:B")
	require.True(t, ok)
	assert.Equal(t, 7.0, ab.Weight)
	bc, ok := resp.Graph.EdgeByID("B:C")
	require.True(t, ok)
	assert.Equal(t, core.Repression, bc.Class)
}

func TestHandlers_GraphCSV(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithGraph(features.Querier(brcaGraph)))
	h := NewHandlers(f.Deps)

	rec := get(t, h.GraphCSV, "/api/cohorts/BRCA/graph.csv?gene=B&min_fraction=0.3", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "source,target,type,fraction\nA,B,activation,0.5\n", rec.Body.String())
}

func TestHandlers_Measurements(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithGraph(features.Querier(brcaGraph)))
	h := NewHandlers(f.Deps)

	rec := get(t, h.Methylation, "/api/cohorts/BRCA/methylation?gene=B", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code)
	var meth []graphdb.MethylationRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meth))
	assert.Equal(t, []graphdb.MethylationRow{{GeneID: "B", PatientID: "TCGA-1", Methylation: 0.3}}, meth)

	rec = get(t, h.Dysregulation, "/api/cohorts/BRCA/dysregulation?edge=A:B", "BRCA")
	require.Equal(t, http.StatusOK, rec.Code)
	var dys []graphdb.DysregulationRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dys))
	assert.Equal(t, []graphdb.DysregulationRow{{RegulationID: "A:B", PatientID: "TCGA-1", Value: 1.25}}, dys)
}

func TestHandlers_Errors(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithGraph(features.Querier(brcaGraph)))
	h := NewHandlers(f.Deps)
	bare := NewHandlers(features.SetupTestFixture(t).Deps)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		cohort  string
		want    int
	}{
		{name: "dysregulation without edge", handler: h.Dysregulation, target: "/x", cohort: "BRCA", want: http.StatusBadRequest},
		{name: "invalid cohort graph", handler: h.Graph, target: "/x?gene=B", cohort: "BRCA;DROP", want: http.StatusBadRequest},
		{name: "invalid cohort genes", handler: h.Genes, target: "/x", cohort: "BR CA", want: http.StatusBadRequest},
		{name: "bad filter", handler: h.GraphCSV, target: "/x?gene=B&min_fraction=2", cohort: "BRCA", want: http.StatusBadRequest},
		{name: "no graph database", handler: bare.List, target: "/x", want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, tt.handler, tt.target, tt.cohort)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
