package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Form fields of an upload.
const (
	FieldExpression = "expression"
	FieldMeta       = "meta"
	FieldNetwork    = "network"
	FieldReference  = "reference"

	maxUploadBytes = 512 << 20
)

// Response summarizes an accepted upload.
type Response struct {
	analysis.UploadSummary
	Reference    string        `json:"reference,omitempty"`
	Missing      []core.GeneID `json:"missing"`
	MissingCount int           `json:"missing_count"`
	Samples      int           `json:"samples"`
	Genes        int           `json:"genes"`
	Edges        int           `json:"edges"`
}

// Handlers provides HTTP handlers for uploads.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Upload reads the three tables, validates them and, when a reference is
// named, reconciles the expression genes with it. The result replaces the
// browser's pending upload.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.WriteError(w, h.deps.Logger, core.NewValidationError("", fmt.Sprintf("invalid upload: %v", err)))
		return
	}
	ctx := r.Context()

	frames := make(map[string]*table.Frame, 3)
	for _, field := range []string{FieldExpression, FieldMeta, FieldNetwork} {
		f, err := h.readFile(ctx, r, field)
		if err != nil {
			common.WriteError(w, h.deps.Logger, err)
			return
		}
		frames[field] = f
	}

	pending, err := session.NewUpload(ctx, frames[FieldExpression], frames[FieldMeta], frames[FieldNetwork],
		h.deps.Catalog, r.FormValue(FieldReference))
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}

	owner, err := common.OwnerID(w, r, h.deps.SessionStore)
	if err != nil {
		common.WriteError(w, h.deps.Logger, err)
		return
	}
	h.deps.Sessions.SetUpload(owner, pending)

	missing := pending.Missing
	if missing == nil {
		missing = []core.GeneID{}
	}
	common.WriteJSON(w, http.StatusOK, Response{
		UploadSummary: pending.Summary,
		Reference:     pending.Reference,
		Missing:       missing,
		MissingCount:  len(missing),
		Samples:       len(pending.Inputs.Expression.Samples),
		Genes:         len(pending.Inputs.Expression.Genes),
		Edges:         len(pending.Inputs.Network.Edges),
	})
}

func (h *Handlers) readFile(ctx context.Context, r *http.Request, field string) (*table.Frame, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, core.NewValidationError(field, "file is required")
	}
	if err != nil {
		return nil, core.NewValidationError(field, err.Error())
	}
	defer func() { _ = file.Close() }()

	f, err := h.deps.Loader.Read(ctx, header.Filename, file)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, core.NewValidationError(field, err.Error())
	}
	return f, nil
}
