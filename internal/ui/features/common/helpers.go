// Package common provides shared types and utilities for UI features.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Cookie session settings.
const (
	CookieName = "dysregnet"
	ownerKey   = "owner"
)

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch core.Kind(err) {
	case core.KindInputValidation:
		return http.StatusBadRequest
	case core.KindReconciliation, core.KindUnusableReference:
		return http.StatusUnprocessableEntity
	case core.KindCacheMiss:
		return http.StatusNotFound
	case core.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case core.KindCancelled:
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, session.ErrUnknownJob), errors.Is(err, reference.ErrUnknownOption):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorResponse. Internal errors are logged and
// reported without detail.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	kind := string(core.Kind(err))
	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrCacheMiss):
		msg = core.ErrCacheMiss.Error()
	case status == http.StatusInternalServerError && kind == string(core.KindInternal):
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// OwnerID returns the browser's owner id from the cookie session, creating
// and saving one on first use.
func OwnerID(w http.ResponseWriter, r *http.Request, store sessions.Store) (string, error) {
	sess, err := store.Get(r, CookieName)
	if err != nil && sess == nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if id, ok := sess.Values[ownerKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[ownerKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Genes splits repeated and comma separated "gene" query values.
func Genes(r *http.Request) []core.GeneID {
	var out []core.GeneID
	for _, v := range r.URL.Query()["gene"] {
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}
