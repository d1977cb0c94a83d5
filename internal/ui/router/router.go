// Package router sets up HTTP routes for the explorer server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analysisFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/analysis"
	cohortsFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/cohorts"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	referencesFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/references"
	resultsFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/results"
	uploadFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/upload"
)

// SetupRoutes configures all routes. gatherer may be nil to omit /metrics.
func SetupRoutes(router chi.Router, deps *common.Deps, gatherer prometheus.Gatherer) error {
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Feature routes
	if err := referencesFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := uploadFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := analysisFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := resultsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := cohortsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	return nil
}
