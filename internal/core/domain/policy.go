package domain

import "fmt"

// HybridPolicy tunes one hybrid search call. Build it with NewPolicy and
// adjust fields before validating; a policy that passed Validate never
// produces per-call configuration errors.
type HybridPolicy struct {
	// RRFK is the reciprocal-rank-fusion smoothing constant.
	RRFK int

	// FetchKAnn / FetchKLexical bound how many candidates each source is
	// asked for before fusion.
	FetchKAnn     int
	FetchKLexical int

	// Hits below these thresholds are discarded before rank maps are built,
	// so surviving ranks stay dense.
	VectorMinScore  float64
	LexicalMinScore float64

	WeightAnn     float64
	WeightLexical float64

	// LexicalMatchAll asks the lexical source to require every query term
	// instead of any of them.
	LexicalMatchAll bool

	EnableSoftSignals           bool
	CapitalizedTermsBonusWeight float64
	QuotedPhraseBonusWeight     float64
	WhoQueryBoostWeight         float64
	SoftBonusCap                float64

	UseDiversity bool
	ResultLimit  int
}

const (
	defaultRRFK            = 60
	defaultFetchK          = 60
	defaultVectorMinScore  = 0.45
	defaultLexicalMinScore = 1.5
	defaultWeightAnn       = 1.0
	defaultWeightLexical   = 0.9
	defaultCapsBonusWeight = 0.08
	defaultQuotedBonus     = 0.12
	defaultWhoBoostWeight  = 0.02
	defaultSoftBonusCap    = 0.25
)

// NewPolicy returns the default policy for the given result size.
func NewPolicy(resultLimit int) (HybridPolicy, error) {
	p := HybridPolicy{
		RRFK:          defaultRRFK,
		FetchKAnn:     defaultFetchK,
		FetchKLexical: defaultFetchK,

		VectorMinScore:  defaultVectorMinScore,
		LexicalMinScore: defaultLexicalMinScore,

		WeightAnn:     defaultWeightAnn,
		WeightLexical: defaultWeightLexical,

		EnableSoftSignals:           true,
		CapitalizedTermsBonusWeight: defaultCapsBonusWeight,
		QuotedPhraseBonusWeight:     defaultQuotedBonus,
		WhoQueryBoostWeight:         defaultWhoBoostWeight,
		SoftBonusCap:                defaultSoftBonusCap,

		UseDiversity: true,
		ResultLimit:  resultLimit,
	}
	if err := p.Validate(); err != nil {
		return HybridPolicy{}, err
	}
	return p, nil
}

// Validate rejects unusable values at construction time.
func (p HybridPolicy) Validate() error {
	if p.ResultLimit <= 0 {
		return WrapError(ErrInvalidPolicy, "validate policy", fmt.Errorf("result limit must be positive, got %d", p.ResultLimit))
	}
	if p.RRFK <= 0 {
		return WrapError(ErrInvalidPolicy, "validate policy", fmt.Errorf("rrf k must be positive, got %d", p.RRFK))
	}
	if p.FetchKAnn <= 0 || p.FetchKLexical <= 0 {
		return WrapError(ErrInvalidPolicy, "validate policy", fmt.Errorf("fetch sizes must be positive, got ann=%d lexical=%d", p.FetchKAnn, p.FetchKLexical))
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"vector min score", p.VectorMinScore},
		{"lexical min score", p.LexicalMinScore},
		{"ann weight", p.WeightAnn},
		{"lexical weight", p.WeightLexical},
		{"capitalized terms bonus weight", p.CapitalizedTermsBonusWeight},
		{"quoted phrase bonus weight", p.QuotedPhraseBonusWeight},
		{"who query boost weight", p.WhoQueryBoostWeight},
		{"soft bonus cap", p.SoftBonusCap},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return WrapError(ErrInvalidPolicy, "validate policy", fmt.Errorf("%s must be non-negative, got %g", f.name, f.value))
		}
	}
	return nil
}
