// Package references serves the control data options.
package references

import (
	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// SetupRoutes registers the reference option routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Route("/api/references", func(r chi.Router) {
		r.Get("/", handlers.List)
		r.Get("/updates", handlers.Updates) // SSE, pushes options after the directory changes
	})

	return nil
}
