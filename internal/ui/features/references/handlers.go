package references

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
)

// Topic is the notifier topic broadcast after the catalog refreshes.
const Topic = "references"

// OptionsSignals carries the option list to the browser.
type OptionsSignals struct {
	References []reference.Option `json:"references"`
}

// Handlers provides HTTP handlers for reference options.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// List returns every control data option.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	opts, err := h.deps.Catalog.Options(r.Context())
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	if opts == nil {
		opts = []reference.Option{}
	}
	common.WriteJSON(w, http.StatusOK, OptionsSignals{References: opts})
}

// Updates is a long-lived SSE endpoint. It sends the current options and
// again after every refresh.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	updates := h.deps.Notifier.Subscribe(Topic)
	defer h.deps.Notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		opts, err := h.deps.Catalog.Options(ctx)
		if err != nil {
			_ = sse.ConsoleError(err)
		} else if err := sse.MarshalAndPatchSignals(OptionsSignals{References: opts}); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-updates:
		}
	}
}
