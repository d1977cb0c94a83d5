package analysis

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// UploadSummary lists the metadata columns a run may use.
type UploadSummary struct {
	Conditions []string `json:"conditions"`
	Covariates []string `json:"covariates"`
}

// Upload is a validated set of user files.
type Upload struct {
	Expression *core.ExpressionMatrix
	Meta       *core.Metadata
	Network    *core.Network
	Summary    UploadSummary
}

// ValidateUpload checks freshly uploaded tables in a fixed order: sample ids
// of expression and metadata must match, the network must have exactly two
// columns, and the metadata must contain at least one binary condition.
// Repeated gene columns keep their first occurrence.
func ValidateUpload(expr, meta, net *table.Frame) (*Upload, error) {
	if !sameSet(expr.IDs(), meta.IDs()) {
		return nil, core.NewValidationError("meta", "sample identifiers in expression and meta data do not match")
	}

	network, err := net.ToNetwork()
	if err != nil {
		return nil, err
	}

	md, err := meta.ToMetadata()
	if err != nil {
		return nil, err
	}

	var conditions []string
	for _, col := range md.Columns {
		values, _ := md.Column(col)
		if isBinary(values, true) {
			conditions = append(conditions, col)
		}
	}
	if len(conditions) == 0 {
		return nil, core.NewValidationError("meta", "no binary condition found in meta data")
	}

	m, err := expr.ToExpression()
	if err != nil {
		return nil, err
	}

	return &Upload{
		Expression: m.UniqueGenes(),
		Meta:       md,
		Network:    network,
		Summary: UploadSummary{
			Conditions: conditions,
			Covariates: append([]string(nil), md.Columns...),
		},
	}, nil
}

// ValidateRun checks that in and params fit together. params must already
// carry defaults.
func ValidateRun(in Inputs, params core.Parameters) error {
	switch {
	case in.Expression == nil:
		return core.NewValidationError("expression", "expression data is required")
	case in.Meta == nil:
		return core.NewValidationError("meta", "meta data is required")
	case in.Network == nil || len(in.Network.Edges) == 0:
		return core.NewValidationError("network", "network has no edges")
	}

	if !sameSet(in.Expression.Samples, in.Meta.Samples) {
		return core.NewValidationError("meta", "sample identifiers in expression and meta data do not match")
	}

	values, ok := in.Meta.Column(params.Condition)
	if !ok {
		return core.NewValidationError("condition", fmt.Sprintf("column %q not found in meta data", params.Condition))
	}
	// Reference controls supply the 0 class, so only cases are required then.
	if !isBinary(values, in.Control == nil) {
		return core.NewValidationError("condition", fmt.Sprintf("column %q must contain only 0 and 1", params.Condition))
	}

	for _, field := range []struct {
		name string
		cols []string
	}{
		{"categorical_covariates", params.CategoricalCovariates},
		{"continuous_covariates", params.ContinuousCovariates},
	} {
		for _, c := range field.cols {
			if c == params.Condition {
				return core.NewValidationError(field.name, fmt.Sprintf("%q is the condition column", c))
			}
			if !slices.Contains(in.Meta.Columns, c) {
				return core.NewValidationError(field.name, fmt.Sprintf("column %q not found in meta data", c))
			}
		}
	}
	return nil
}

// mergeControl appends reference control samples to the expression matrix
// and labels them condition 0.
func mergeControl(in Inputs, params core.Parameters) (Inputs, error) {
	if in.Control == nil {
		return in, nil
	}
	if len(params.CategoricalCovariates)+len(params.ContinuousCovariates) > 0 {
		return Inputs{}, core.NewValidationError("covariates", "covariates are not available for reference control samples")
	}
	if !slices.Equal(in.Control.Genes, in.Expression.Genes) {
		return Inputs{}, fmt.Errorf("%w: control and expression gene axes differ", core.ErrReconciliation)
	}

	cond, _ := in.Meta.Column(params.Condition)
	bySample := make(map[string]string, len(in.Meta.Samples))
	for i, s := range in.Meta.Samples {
		bySample[s] = cond[i]
	}

	expr := &core.ExpressionMatrix{
		Genes:   in.Expression.Genes,
		Samples: make([]string, 0, len(in.Expression.Samples)+len(in.Control.Samples)),
		Values:  make([][]float64, 0, len(in.Expression.Samples)+len(in.Control.Samples)),
	}
	meta := &core.Metadata{Columns: []string{params.Condition}}

	for i, s := range in.Expression.Samples {
		expr.Samples = append(expr.Samples, s)
		expr.Values = append(expr.Values, in.Expression.Values[i])
		meta.Samples = append(meta.Samples, s)
		meta.Values = append(meta.Values, []string{bySample[s]})
	}
	for i, s := range in.Control.Samples {
		if _, clash := bySample[s]; clash {
			return Inputs{}, core.NewValidationError("expression", fmt.Sprintf("sample %q also occurs in the control data", s))
		}
		expr.Samples = append(expr.Samples, s)
		expr.Values = append(expr.Values, in.Control.Values[i])
		meta.Samples = append(meta.Samples, s)
		meta.Values = append(meta.Values, []string{"0"})
	}

	return Inputs{Expression: expr, Meta: meta, Network: in.Network}, nil
}

// isBinary reports whether every value is 0 or 1. With both set, each must
// also occur at least once.
func isBinary(values []string, both bool) bool {
	if len(values) == 0 {
		return false
	}
	var zero, one bool
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		switch {
		case err != nil:
			return false
		case f == 0:
			zero = true
		case f == 1:
			one = true
		default:
			return false
		}
	}
	if both {
		return zero && one
	}
	return one
}

func sameSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
		other[s] = struct{}{}
	}
	return len(other) == len(set)
}
