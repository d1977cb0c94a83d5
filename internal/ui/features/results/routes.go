// Package results serves neighborhoods and exports of cached analysis results.
package results

import (
	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// SetupRoutes registers the cached result routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", handlers.Info)
		r.Get("/graph", handlers.Graph)
		r.Get("/export/graph.csv", handlers.ExportGraphCSV)
		r.Get("/export/result.csv", handlers.ExportResultCSV)
		r.Get("/export/result.xlsx", handlers.ExportResultXLSX)
	})
	router.Post("/api/export/displayed.csv", handlers.ExportDisplayedCSV)

	return nil
}
