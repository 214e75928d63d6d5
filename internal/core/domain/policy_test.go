package domain

import "testing"

func TestNewPolicyDefaults(t *testing.T) {
	policy, err := NewPolicy(5)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	if policy.RRFK != 60 || policy.FetchKAnn != 60 || policy.FetchKLexical != 60 {
		t.Fatalf("unexpected rank defaults: %+v", policy)
	}
	if policy.VectorMinScore != 0.45 || policy.LexicalMinScore != 1.5 {
		t.Fatalf("unexpected threshold defaults: %+v", policy)
	}
	if policy.WeightAnn != 1.0 || policy.WeightLexical != 0.9 {
		t.Fatalf("unexpected weight defaults: %+v", policy)
	}
	if !policy.EnableSoftSignals || !policy.UseDiversity {
		t.Fatalf("soft signals and diversity must default on: %+v", policy)
	}
	if policy.CapitalizedTermsBonusWeight != 0.08 || policy.QuotedPhraseBonusWeight != 0.12 ||
		policy.WhoQueryBoostWeight != 0.02 || policy.SoftBonusCap != 0.25 {
		t.Fatalf("unexpected bonus defaults: %+v", policy)
	}
	if policy.LexicalMatchAll {
		t.Fatalf("match-all must default off")
	}
	if policy.ResultLimit != 5 {
		t.Fatalf("expected result limit 5, got %d", policy.ResultLimit)
	}
}

func TestNewPolicyRejectsNonPositiveResultLimit(t *testing.T) {
	if _, err := NewPolicy(0); !IsKind(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	base, err := NewPolicy(5)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*HybridPolicy)
	}{
		{"rrf k", func(p *HybridPolicy) { p.RRFK = 0 }},
		{"fetch k ann", func(p *HybridPolicy) { p.FetchKAnn = -1 }},
		{"fetch k lexical", func(p *HybridPolicy) { p.FetchKLexical = 0 }},
		{"vector min score", func(p *HybridPolicy) { p.VectorMinScore = -0.1 }},
		{"lexical min score", func(p *HybridPolicy) { p.LexicalMinScore = -1 }},
		{"ann weight", func(p *HybridPolicy) { p.WeightAnn = -0.5 }},
		{"lexical weight", func(p *HybridPolicy) { p.WeightLexical = -0.5 }},
		{"caps bonus weight", func(p *HybridPolicy) { p.CapitalizedTermsBonusWeight = -0.01 }},
		{"quoted bonus weight", func(p *HybridPolicy) { p.QuotedPhraseBonusWeight = -0.01 }},
		{"who boost weight", func(p *HybridPolicy) { p.WhoQueryBoostWeight = -0.01 }},
		{"soft bonus cap", func(p *HybridPolicy) { p.SoftBonusCap = -0.25 }},
	}
	for _, tc := range cases {
		policy := base
		tc.mutate(&policy)
		if err := policy.Validate(); !IsKind(err, ErrInvalidPolicy) {
			t.Fatalf("%s: expected ErrInvalidPolicy, got %v", tc.name, err)
		}
	}
}

func TestValidateAllowsZeroThresholdsAndWeights(t *testing.T) {
	policy, err := NewPolicy(5)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	policy.VectorMinScore = 0
	policy.WeightLexical = 0
	policy.SoftBonusCap = 0
	if err := policy.Validate(); err != nil {
		t.Fatalf("zero values must be valid, got %v", err)
	}
}
