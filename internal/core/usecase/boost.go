package usecase

import (
	"strings"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

// applySoftSignalBonuses perturbs fused scores in place with small, capped
// bonuses. Soft signals never gate inclusion: a chunk that made it into the
// fused map keeps at least its fused score, and chunks without a resolvable
// payload are left untouched.
func applySoftSignalBonuses(
	fused map[string]float64,
	byID map[string]domain.AnnHit,
	signals QuerySignals,
	policy domain.HybridPolicy,
) {
	if len(signals.CapitalizedTerms) == 0 && len(signals.QuotedPhrases) == 0 {
		return
	}

	for id := range fused {
		hit, ok := byID[id]
		if !ok {
			continue
		}

		pool := searchablePool(hit.Chunk)
		bonus := coverageBonus(pool, signals.CapitalizedTerms, policy.CapitalizedTermsBonusWeight) +
			coverageBonus(pool, signals.QuotedPhrases, policy.QuotedPhraseBonusWeight)
		if signals.IsWhoQuery && hit.Cosine > 0 {
			bonus += policy.WhoQueryBoostWeight * hit.Cosine
		}
		if bonus > policy.SoftBonusCap {
			bonus = policy.SoftBonusCap
		}
		fused[id] += bonus
	}
}

// searchablePool is the lowercased text the soft signals are matched
// against: title, section heading and chunk content.
func searchablePool(chunk domain.Chunk) string {
	var b strings.Builder
	b.Grow(len(chunk.Content) + 64)
	b.WriteString(chunk.Title())
	b.WriteByte('\n')
	b.WriteString(chunk.Section())
	b.WriteByte('\n')
	b.WriteString(chunk.Content)
	return strings.ToLower(b.String())
}

// coverageBonus scales the weight by the fraction of terms found in the
// pool. Terms arrive already lowercased from the signal extractor.
func coverageBonus(pool string, terms []string, weight float64) float64 {
	if len(terms) == 0 || weight == 0 {
		return 0
	}
	found := 0
	for _, term := range terms {
		if strings.Contains(pool, term) {
			found++
		}
	}
	return weight * float64(found) / float64(len(terms))
}
