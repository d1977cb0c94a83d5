// Package analysis starts, follows and cancels background analysis runs.
package analysis

import (
	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// SetupRoutes registers the run routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Route("/api/runs", func(r chi.Router) {
		r.Post("/", handlers.Start)
		r.Get("/{id}", handlers.Status)
		r.Get("/{id}/progress", handlers.ProgressSSE)
		r.Delete("/{id}", handlers.Cancel)
	})

	return nil
}
