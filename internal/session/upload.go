package session

import (
	"context"

	"github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/reconcile"
	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Upload is a validated upload waiting to be run.
type Upload struct {
	Inputs  analysis.Inputs
	Summary analysis.UploadSummary
	// Reference is the control data option, empty when none was chosen.
	Reference string
	// Missing lists expression genes dropped because the reference lacks them.
	Missing []core.GeneID
}

// ReferenceLoader loads control datasets by option name.
type ReferenceLoader interface {
	Load(ctx context.Context, name string) (*reference.Dataset, error)
}

// versionStripper is implemented by loaders whose ids have their version
// suffix removed.
type versionStripper interface {
	StripsVersions() bool
}

// NewUpload validates the three tables and, when ref names a control
// dataset, aligns the expression genes with it. When the loader strips
// versions the uploaded gene ids are stripped the same way first.
// Reconciliation finishes before the upload can be run.
func NewUpload(ctx context.Context, expr, meta, network *table.Frame, refs ReferenceLoader, ref string) (*Upload, error) {
	up, err := analysis.ValidateUpload(expr, meta, network)
	if err != nil {
		return nil, err
	}

	out := &Upload{
		Inputs:  analysis.Inputs{Expression: up.Expression, Meta: up.Meta, Network: up.Network},
		Summary: up.Summary,
	}
	if ref == "" {
		return out, nil
	}

	ds, err := refs.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	query := up.Expression
	if vs, ok := refs.(versionStripper); ok && vs.StripsVersions() {
		query = reference.StripMatrixVersions(query)
		out.Inputs.Network = reference.StripNetworkVersions(out.Inputs.Network)
	}
	aligned, err := reconcile.Align(query, ds)
	if err != nil {
		return nil, err
	}
	out.Inputs.Expression = aligned.Query
	out.Inputs.Control = aligned.Reference
	out.Reference = ref
	out.Missing = aligned.Missing
	return out, nil
}
