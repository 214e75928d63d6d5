package usecase

import (
	"sort"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

type rankedCandidate struct {
	id       string
	score    float64
	cosine   float64
	resolved bool
}

// selectDiverse orders fused candidates, optionally enforces one chunk per
// parent document, and truncates to the result limit. Ids without a
// resolvable chunk payload are skipped; the count is returned so callers
// can surface the data-completeness gap.
func selectDiverse(
	fused map[string]float64,
	byID map[string]domain.AnnHit,
	policy domain.HybridPolicy,
) (out []domain.ScoredChunk, unresolved int) {
	candidates := make([]rankedCandidate, 0, len(fused))
	for id, score := range fused {
		c := rankedCandidate{id: id, score: score}
		if hit, ok := byID[id]; ok {
			c.cosine = hit.Cosine
			c.resolved = true
		}
		candidates = append(candidates, c)
	}

	// Fused score first, then cosine (a missing cosine loses to any present
	// one), then chunk id so repeated calls are byte-identical.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.resolved != b.resolved {
			return a.resolved
		}
		if a.cosine != b.cosine {
			return a.cosine > b.cosine
		}
		return a.id < b.id
	})

	out = make([]domain.ScoredChunk, 0, policy.ResultLimit)
	emittedDocs := make(map[string]struct{}, policy.ResultLimit)
	for _, c := range candidates {
		if len(out) >= policy.ResultLimit {
			break
		}
		if !c.resolved {
			unresolved++
			continue
		}
		hit := byID[c.id]
		if policy.UseDiversity {
			if _, taken := emittedDocs[hit.Chunk.DocumentID]; taken {
				continue
			}
			emittedDocs[hit.Chunk.DocumentID] = struct{}{}
		}
		out = append(out, domain.ScoredChunk{
			Chunk:  hit.Chunk,
			Score:  c.score,
			Cosine: hit.Cosine,
		})
	}
	return out, unresolved
}
