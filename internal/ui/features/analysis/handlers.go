package analysis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	analysisrun "github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// RunSignals are the run parameters sent by the browser.
type RunSignals struct {
	Condition             string   `json:"condition"`
	CategoricalCovariates []string `json:"categorical_covariates"`
	ContinuousCovariates  []string `json:"continuous_covariates"`
	ZScore                bool     `json:"z_score"`
	BonferroniAlpha       float64  `json:"bonferroni_alpha"`
	NormalityTest         bool     `json:"normality_test"`
	NormalityAlpha        float64  `json:"normality_alpha"`
	RSquaredThreshold     *float64 `json:"r_squared_threshold"`
	ConditionDirection    bool     `json:"condition_direction"`
}

// Parameters converts the signals, filling in the upload's reference.
func (s RunSignals) Parameters(reference string) core.Parameters {
	return core.Parameters{
		Condition:             s.Condition,
		CategoricalCovariates: s.CategoricalCovariates,
		ContinuousCovariates:  s.ContinuousCovariates,
		ZScore:                s.ZScore,
		BonferroniAlpha:       s.BonferroniAlpha,
		NormalityTest:         s.NormalityTest,
		NormalityAlpha:        s.NormalityAlpha,
		RSquaredThreshold:     s.RSquaredThreshold,
		ConditionDirection:    s.ConditionDirection,
		Reference:             reference,
	}
}

// StartResponse identifies a started run.
type StartResponse struct {
	SessionID string `json:"session_id"`
}

// ProgressSignals are pushed to the browser while a run is in flight.
type ProgressSignals struct {
	Run session.Snapshot `json:"run"`
}

// Handlers provides HTTP handlers for runs.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Start validates the parameters against the browser's upload and starts a
// run in the background.
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	var signals RunSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		common.WriteError(w, h.deps.Logger, core.NewValidationError("", "failed to read run parameters: "+err.Error()))
		return
	}

	owner, err := common.OwnerID(w, r, h.deps.SessionStore)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	up := h.deps.Sessions.Upload(owner)
	if up == nil {
		common.WriteError(w, h.deps.Logger, core.NewValidationError("upload", "upload expression, meta and network data first"))
		return
	}

	params := signals.Parameters(up.Reference).WithDefaults()
	if err := params.Validate(); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	if err := analysisrun.ValidateRun(up.Inputs, params); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}

	job, err := h.deps.Sessions.Start(up.Inputs, params)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	common.WriteJSON(w, http.StatusAccepted, StartResponse{SessionID: job.ID()})
}

// Status returns a snapshot of one run.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Sessions.Job(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, job.Snapshot())
}

// ProgressSSE streams run snapshots until the run stops or the client leaves.
func (h *Handlers) ProgressSSE(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Sessions.Job(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}

	updates := h.deps.Notifier.Subscribe(job.ID())
	defer h.deps.Notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		snap := job.Snapshot()
		if err := sse.MarshalAndPatchSignals(ProgressSignals{Run: snap}); err != nil {
			return
		}
		if snap.Done() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-updates:
		case <-job.Done():
		}
	}
}

// Cancel stops a run. Cancelling a finished run is accepted and changes nothing.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.Cancel(chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
