// Package cohorts serves the precomputed cancer cohorts of the graph database.
package cohorts

import (
	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// SetupRoutes registers the cohort routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Route("/api/cohorts", func(r chi.Router) {
		r.Get("/", handlers.List)
		r.Route("/{cohort}", func(r chi.Router) {
			r.Get("/genes", handlers.Genes)
			r.Get("/patients", handlers.Patients)
			r.Get("/graph", handlers.Graph)
			r.Get("/graph.csv", handlers.GraphCSV)
			r.Get("/graph.svg", handlers.GraphSVG)
			r.Get("/methylation", handlers.Methylation)
			r.Get("/dysregulation", handlers.Dysregulation)
		})
	})

	return nil
}
