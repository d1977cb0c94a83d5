package cohorts

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// ListResponse wraps a list of ids.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// Handlers provides HTTP handlers for cohorts.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

func (h *Handlers) store(w http.ResponseWriter) (*graphdb.Store, bool) {
	if h.deps.Graph == nil {
		common.WriteError(w, h.deps.Logger, fmt.Errorf("%w: no graph database configured", core.ErrServiceUnavailable))
		return nil, false
	}
	return h.deps.Graph, true
}

func (h *Handlers) writeIDs(w http.ResponseWriter, ids []string, err error) {
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	common.WriteJSON(w, http.StatusOK, ListResponse{IDs: ids})
}

// List returns every cohort id.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	ids, err := store.CohortIDs(r.Context())
	h.writeIDs(w, ids, err)
}

// Genes returns the gene ids of a cohort.
func (h *Handlers) Genes(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	ids, err := store.GeneIDs(r.Context(), chi.URLParam(r, "cohort"))
	h.writeIDs(w, ids, err)
}

// Patients returns the patient ids of a cohort.
func (h *Handlers) Patients(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	ids, err := store.PatientIDs(r.Context(), chi.URLParam(r, "cohort"))
	h.writeIDs(w, ids, err)
}

func (h *Handlers) source(w http.ResponseWriter, r *http.Request) (*neighborhood.GraphSource, bool) {
	store, ok := h.store(w)
	if !ok {
		return nil, false
	}
	src, err := neighborhood.NewGraphSource(store, chi.URLParam(r, "cohort"))
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return nil, false
	}
	return src, true
}

// Graph assembles a cohort neighborhood, optionally with a patient overlay
// and a comparison cohort.
func (h *Handlers) Graph(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	q := neighborhood.Query{
		Centers: common.Genes(r),
		Dataset: "cohort:" + src.Cohort(),
		Options: neighborhood.Options{
			Patient:       r.URL.Query().Get("patient"),
			CompareCohort: r.URL.Query().Get("compare"),
		},
	}
	common.Neighborhood(w, r, h.deps, q, src)
}

func (h *Handlers) filteredGraph(w http.ResponseWriter, r *http.Request) (*core.NeighborhoodGraph, bool) {
	src, ok := h.source(w, r)
	if !ok {
		return nil, false
	}
	filter, err := common.FilterOptions(r)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return nil, false
	}
	graph, err := h.deps.Assembler.Assemble(r.Context(), common.Genes(r), src, neighborhood.Options{})
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return nil, false
	}
	return neighborhood.Filter(graph, filter), true
}

// GraphCSV exports a cohort neighborhood as CSV.
func (h *Handlers) GraphCSV(w http.ResponseWriter, r *http.Request) {
	graph, ok := h.filteredGraph(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.GraphRows(graph)); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="network.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// GraphSVG renders a cohort neighborhood.
func (h *Handlers) GraphSVG(w http.ResponseWriter, r *http.Request) {
	graph, ok := h.filteredGraph(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.RenderSVG(r.Context(), &buf, graph); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

// Methylation returns methylation rows for the requested genes.
func (h *Handlers) Methylation(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	rows, err := store.Methylation(r.Context(), chi.URLParam(r, "cohort"), common.Genes(r))
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, rows)
}

// Dysregulation returns per-patient values for the requested edge ids.
func (h *Handlers) Dysregulation(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	ids := r.URL.Query()["edge"]
	if len(ids) == 0 {
		common.WriteError(w, h.deps.Logger, core.NewValidationError("edge", "at least one edge id is required"))
		return
	}
	rows, err := store.Dysregulation(r.Context(), chi.URLParam(r, "cohort"), ids)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, rows)
}
