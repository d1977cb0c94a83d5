package common

import (
	"net/http"
	"strconv"

	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// GraphResponse is the body of every neighborhood request.
type GraphResponse struct {
	Outcome string                  `json:"outcome"`
	Graph   *core.NeighborhoodGraph `json:"graph"`
}

// FilterOptions reads min_fraction and max_regulations.
func FilterOptions(r *http.Request) (neighborhood.FilterOptions, error) {
	var opts neighborhood.FilterOptions
	q := r.URL.Query()
	if v := q.Get("min_fraction"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return opts, core.NewValidationError("min_fraction", "must be a number in [0,1]")
		}
		opts.MinFraction = f
	}
	if v := q.Get("max_regulations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, core.NewValidationError("max_regulations", "must be a non-negative integer")
		}
		opts.MaxRegulations = n
	}
	return opts, nil
}

// Neighborhood assembles or reuses the owner's last view for q and answers
// with the filtered graph.
func Neighborhood(w http.ResponseWriter, r *http.Request, deps *Deps, q neighborhood.Query, src neighborhood.EdgeSource) {
	filter, err := FilterOptions(r)
	if err != nil {
		WriteError(w, deps.Logger, err)
		return
	}
	owner, err := OwnerID(w, r, deps.SessionStore)
	if err != nil {
		WriteError(w, deps.Logger, err)
		return
	}

	prev := deps.Sessions.View(owner)
	view, outcome, err := deps.Assembler.Update(r.Context(), prev, q, src)
	if err != nil {
		WriteError(w, deps.Logger, err)
		return
	}
	deps.Sessions.SetView(owner, view)
	WriteJSON(w, http.StatusOK, GraphResponse{Outcome: outcome.String(), Graph: neighborhood.Filter(view.Graph, filter)})
}
