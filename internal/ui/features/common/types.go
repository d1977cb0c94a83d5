package common

import (
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/dysregnet/dysregnet-explorer/internal/cache"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/notifier"
)

// Deps are the services feature handlers share. Graph is nil when no graph
// database is configured; cohort routes then answer 503.
type Deps struct {
	Catalog      *reference.Catalog
	Loader       *table.Loader
	Sessions     *session.Manager
	Cache        *cache.ResultCache
	Graph        *graphdb.Store
	Assembler    *neighborhood.Assembler
	Notifier     *notifier.Notifier
	SessionStore sessions.Store
	Logger       *slog.Logger
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
