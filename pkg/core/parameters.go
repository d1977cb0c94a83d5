package core

import "fmt"

// Default significance levels applied when a run does not set them.
const (
	DefaultBonferroniAlpha = 0.01
	DefaultNormalityAlpha  = 0.001
)

// Parameters is the exact parameter set of an analysis run. It is cached
// alongside the result it produced.
type Parameters struct {
	Condition             string   `json:"condition"`
	CategoricalCovariates []string `json:"categorical_covariates"`
	ContinuousCovariates  []string `json:"continuous_covariates"`
	ZScore                bool     `json:"z_score"`
	BonferroniAlpha       float64  `json:"bonferroni_alpha"`
	NormalityTest         bool     `json:"normality_test"`
	NormalityAlpha        float64  `json:"normality_alpha"`

	// RSquaredThreshold is passed to the model unchanged; nil means unset.
	RSquaredThreshold  *float64 `json:"r_squared_threshold,omitempty"`
	ConditionDirection bool     `json:"condition_direction"`

	// Reference names the control data option used, if any.
	Reference string `json:"reference,omitempty"`
}

// WithDefaults returns a copy with zero alphas replaced by the defaults and
// nil covariate lists replaced by empty ones.
func (p Parameters) WithDefaults() Parameters {
	if p.BonferroniAlpha == 0 {
		p.BonferroniAlpha = DefaultBonferroniAlpha
	}
	if p.NormalityAlpha == 0 {
		p.NormalityAlpha = DefaultNormalityAlpha
	}
	if p.CategoricalCovariates == nil {
		p.CategoricalCovariates = []string{}
	}
	if p.ContinuousCovariates == nil {
		p.ContinuousCovariates = []string{}
	}
	return p
}

// Validate checks parameter ranges. Call WithDefaults first.
func (p Parameters) Validate() error {
	if p.Condition == "" {
		return NewValidationError("condition", "a condition column is required")
	}
	if p.BonferroniAlpha <= 0 || p.BonferroniAlpha > 1 {
		return NewValidationError("bonferroni_alpha", fmt.Sprintf("must be in (0,1], got %g", p.BonferroniAlpha))
	}
	if p.NormalityAlpha <= 0 || p.NormalityAlpha > 1 {
		return NewValidationError("normality_alpha", fmt.Sprintf("must be in (0,1], got %g", p.NormalityAlpha))
	}
	if r2 := p.RSquaredThreshold; r2 != nil && (*r2 < 0 || *r2 > 1) {
		return NewValidationError("r_squared_threshold", fmt.Sprintf("must be in [0,1], got %g", *r2))
	}
	return nil
}
