// Package upload accepts user data files and validates them for a run.
package upload

import (
	"github.com/go-chi/chi/v5"

	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// SetupRoutes registers the upload route.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Post("/api/upload", handlers.Upload)

	return nil
}
