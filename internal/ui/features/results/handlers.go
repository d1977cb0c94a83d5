package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/cache"
	"github.com/dysregnet/dysregnet-explorer/internal/export"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InfoResponse describes a cached result without its values.
type InfoResponse struct {
	SessionID  string          `json:"session_id"`
	Parameters core.Parameters `json:"parameters"`
	Samples    []string        `json:"samples"`
	Edges      int             `json:"edges"`
}

// Handlers provides HTTP handlers for cached results.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

func (h *Handlers) entry(w http.ResponseWriter, r *http.Request) (string, *cache.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, err := h.deps.Cache.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return id, nil, false
	}
	return id, e, true
}

// Info returns the parameters and shape of a cached result.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.entry(w, r)
	if !ok {
		return
	}
	common.WriteJSON(w, http.StatusOK, InfoResponse{
		SessionID:  id,
		Parameters: e.Parameters,
		Samples:    e.Results.Samples,
		Edges:      len(e.Results.Edges),
	})
}

// Graph assembles the neighborhood of the requested genes from the cached result.
func (h *Handlers) Graph(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.entry(w, r)
	if !ok {
		return
	}
	q := neighborhood.Query{
		Centers: common.Genes(r),
		Dataset: "session:" + id,
		Options: neighborhood.Options{Patient: r.URL.Query().Get("patient")},
	}
	common.Neighborhood(w, r, h.deps, q, neighborhood.NewTableSource(e.Results))
}

// ExportGraphCSV exports the neighborhood of the requested genes.
func (h *Handlers) ExportGraphCSV(w http.ResponseWriter, r *http.Request) {
	_, e, ok := h.entry(w, r)
	if !ok {
		return
	}
	filter, err := common.FilterOptions(r)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	graph, err := h.deps.Assembler.Assemble(r.Context(), common.Genes(r), neighborhood.NewTableSource(e.Results), neighborhood.Options{})
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.GraphRows(neighborhood.Filter(graph, filter))); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	attachment(w, "text/csv", "network.csv", buf.Bytes())
}

// ExportResultCSV dumps the full cached result.
func (h *Handlers) ExportResultCSV(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteResultCSV(&buf, e.Results); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	attachment(w, "text/csv", fmt.Sprintf("dysregnet_%s.csv", id), buf.Bytes())
}

// ExportResultXLSX dumps the full cached result as a workbook.
func (h *Handlers) ExportResultXLSX(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteResultXLSX(&buf, e.Results); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	attachment(w, xlsxContentType, fmt.Sprintf("dysregnet_%s.xlsx", id), buf.Bytes())
}

// ExportDisplayedCSV exports an edge list as filtered by the client.
func (h *Handlers) ExportDisplayedCSV(w http.ResponseWriter, r *http.Request) {
	var edges []export.DisplayedEdge
	if err := json.NewDecoder(r.Body).Decode(&edges); err != nil {
		common.WriteError(w, h.deps.Logger, core.NewValidationError("edges", "expected a JSON list of edges"))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.DisplayedRows(edges)); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	attachment(w, "text/csv", "network.csv", buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
